package extract

// Fields is the structured result of extraction. Empty string means not found.
type Fields struct {
	Name     string `json:"name"`
	Expiry   string `json:"expiry"`
	BatchNo  string `json:"batchNo"`
	Strength string `json:"strength"`
}

// Trace records which strategy produced each field, keyed by JSON field name.
// Fields without a match are absent.
type Trace map[string]string

// chain is the ordered strategy list for a single field.
type chain struct {
	field      string
	set        func(*Fields, string)
	strategies []Strategy
}

// Extractor runs the per-field strategy chains over RecognizedText.
type Extractor struct {
	vocab  Vocabulary
	chains []chain
}

// New builds an Extractor over the given vocabulary. Expiry is resolved
// before name because the name strategies skip the expiry line.
func New(vocab Vocabulary) *Extractor {
	vocab = vocab.normalized()
	return &Extractor{
		vocab: vocab,
		chains: []chain{
			{
				field:      "expiry",
				set:        func(f *Fields, v string) { f.Expiry = v },
				strategies: []Strategy{ExpiryByLabel()},
			},
			{
				field: "name",
				set:   func(f *Fields, v string) { f.Name = v },
				strategies: []Strategy{
					NameFromDictionary(vocab.MedicineNames),
					NameFromFilteredLines(vocab.NoiseKeywords, vocab.NameMaxLength),
					NameFromFirstLine(),
				},
			},
			{
				field:      "batchNo",
				set:        func(f *Fields, v string) { f.BatchNo = v },
				strategies: []Strategy{BatchByLabel()},
			},
			{
				field:      "strength",
				set:        func(f *Fields, v string) { f.Strength = v },
				strategies: []Strategy{StrengthByUnit()},
			},
		},
	}
}

// NewDefault builds an Extractor over DefaultVocabulary.
func NewDefault() *Extractor {
	return New(DefaultVocabulary())
}

// Vocabulary returns the normalized vocabulary in use.
func (e *Extractor) Vocabulary() Vocabulary {
	return e.vocab
}

// Extract derives Fields from text. Empty text yields empty Fields.
func (e *Extractor) Extract(text RecognizedText) Fields {
	fields, _ := e.Explain(text)
	return fields
}

// Explain is Extract plus the name of the strategy that won each field.
func (e *Extractor) Explain(text RecognizedText) (Fields, Trace) {
	var fields Fields
	trace := Trace{}
	for _, c := range e.chains {
		for _, s := range c.strategies {
			if v, ok := s.Find(text, fields); ok {
				c.set(&fields, v)
				trace[c.field] = s.Name
				break
			}
		}
	}
	return fields, trace
}
