package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const vocabularySchemaJSON = `{
  "type": "object",
  "properties": {
    "medicine_names": {"type": "array", "items": {"type": "string"}},
    "noise_keywords": {"type": "array", "items": {"type": "string"}},
    "name_max_length": {"type": "integer", "minimum": 0}
  },
  "additionalProperties": false
}`

var vocabularySchema = jsonschema.MustCompileString("vocabulary.schema.json", vocabularySchemaJSON)

// Vocabulary is the configuration data behind the name heuristics.
type Vocabulary struct {
	// MedicineNames is the dictionary, in precedence order. Matching is
	// case-insensitive; entries are stored upper-case.
	MedicineNames []string `json:"medicine_names"`

	// NoiseKeywords disqualify a line as a name candidate when any of them
	// occurs in the lower-cased line. Stored lower-case.
	NoiseKeywords []string `json:"noise_keywords"`

	// NameMaxLength truncates names picked from a filtered line, in runes.
	NameMaxLength int `json:"name_max_length"`
}

// DefaultVocabulary returns the built-in dictionary and noise keywords.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		MedicineNames: []string{
			"PARACETAMOL",
			"PANADOL",
			"BRUFEN",
			"DISPRIN",
			"CALPOL",
			"AMOXICILLIN",
			"IBUPROFEN",
			"ASPIRIN",
			"CIPROFLOXACIN",
			"METFORMIN",
			"ATORVASTATIN",
			"OMEPRAZOLE",
			"AUGMENTIN",
		},
		NoiseKeywords: []string{
			"tabs", "tablets", "mg", "g", "store", "rx", "only", "keep", "reach",
			"children", "dosage", "batch", "exp", "expiry", "manuf", "mfg",
			"price", "rs", "b.no", "lot",
		},
		NameMaxLength: 50,
	}
}

// LoadVocabulary reads a JSON vocabulary file. Keys missing from the file
// keep their default values, so a file may override only the dictionary.
//
//	{"medicine_names": ["PANADOL", "CALPOL"], "noise_keywords": ["mg", "rx"]}
func LoadVocabulary(path string) (Vocabulary, error) {
	v := DefaultVocabulary()

	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary %s: %w", path, err)
	}
	if err := vocabularySchema.Validate(doc); err != nil {
		return Vocabulary{}, fmt.Errorf("vocabulary %s does not match schema: %w", path, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary %s: %w", path, err)
	}

	v = v.normalized()
	if len(v.MedicineNames) == 0 {
		return Vocabulary{}, fmt.Errorf("vocabulary %s has no medicine names", path)
	}
	return v, nil
}

// normalized upper-cases names, lower-cases keywords and drops blanks.
func (v Vocabulary) normalized() Vocabulary {
	out := Vocabulary{
		MedicineNames: make([]string, 0, len(v.MedicineNames)),
		NoiseKeywords: make([]string, 0, len(v.NoiseKeywords)),
		NameMaxLength: v.NameMaxLength,
	}
	for _, name := range v.MedicineNames {
		if name = strings.ToUpper(strings.TrimSpace(name)); name != "" {
			out.MedicineNames = append(out.MedicineNames, name)
		}
	}
	for _, kw := range v.NoiseKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			out.NoiseKeywords = append(out.NoiseKeywords, kw)
		}
	}
	if out.NameMaxLength <= 0 {
		out.NameMaxLength = DefaultVocabulary().NameMaxLength
	}
	return out
}
