// Package extract turns recognized package text into structured medicine fields.
//
// Each field (expiry, name, batch number, strength) has its own ordered chain
// of strategies. A strategy looks at the whole RecognizedText and either
// yields a value or nothing; the chain stops at the first value. Chains are
// independent of each other, except that the name strategies can see the
// expiry already found so that the expiry line is not mistaken for a name.
//
// Name chain, highest precedence first:
//
//  1. dictionary: a known medicine name anywhere in the text, in list order
//  2. filtered-line: the first line that is not noise (expiry, digits, keywords)
//  3. first-line: the first line, or the second one if the first holds the expiry
//
// The dictionary and the noise keywords are data (Vocabulary), not code, and
// can be replaced from a JSON file.
//
// Extraction never fails: a field without a match is the empty string. The
// Extractor has no mutable state and is safe for concurrent use.
package extract
