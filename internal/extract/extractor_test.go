package extract

import (
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestExtract(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Extract Suite")
}

var _ = Describe("Extractor", func() {
	var (
		extractor *Extractor
		text      RecognizedText
		fields    Fields
		trace     Trace
	)

	BeforeEach(func() {
		extractor = NewDefault()
	})

	JustBeforeEach(func() {
		fields, trace = extractor.Explain(text)
	})

	When("reading a typical package", func() {
		BeforeEach(func() {
			text = RecognizedText{"PANADOL EXTRA", "500mg", "EXP: 12/2026", "B.No: A45X"}
		})

		It("should find the name in the dictionary", func() {
			Expect(fields.Name).To(Equal("Panadol"))
			Expect(trace["name"]).To(Equal("nameFromDictionary"))
		})

		It("should find the expiry", func() {
			Expect(fields.Expiry).To(Equal("12/2026"))
		})

		It("should find the strength", func() {
			Expect(fields.Strength).To(Equal("500mg"))
		})

		It("should find the batch number", func() {
			Expect(fields.BatchNo).To(Equal("A45X"))
		})

		It("should agree with Extract", func() {
			Expect(extractor.Extract(text)).To(Equal(fields))
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			text = RecognizedText{}
		})

		It("should return empty fields", func() {
			Expect(fields).To(Equal(Fields{}))
		})

		It("should record no strategies", func() {
			Expect(trace).To(BeEmpty())
		})
	})

	When("the text is nil", func() {
		BeforeEach(func() {
			text = nil
		})

		It("should return empty fields", func() {
			Expect(fields).To(Equal(Fields{}))
		})
	})

	Describe("name", func() {
		When("several dictionary entries occur", func() {
			BeforeEach(func() {
				text = RecognizedText{"BRUFEN 400", "with PARACETAMOL"}
			})

			It("should follow dictionary order, not line order", func() {
				Expect(fields.Name).To(Equal("Paracetamol"))
			})
		})

		When("the dictionary name is lower case in the text", func() {
			BeforeEach(func() {
				text = RecognizedText{"calpol six plus"}
			})

			It("should still match and title-case the result", func() {
				Expect(fields.Name).To(Equal("Calpol"))
			})
		})

		When("no dictionary entry occurs", func() {
			BeforeEach(func() {
				text = RecognizedText{"EXP 12/2026", "Zentovex Plus", "Tabs 10"}
			})

			It("should take the first line that is not noise", func() {
				Expect(fields.Name).To(Equal("Zentovex Plus"))
				Expect(trace["name"]).To(Equal("nameFromFilteredLines"))
			})
		})

		When("the expiry was found on an earlier line", func() {
			BeforeEach(func() {
				text = RecognizedText{"Best By 03/2027", "Cofex Syrup", "120 ml"}
			})

			It("should take the next clean line", func() {
				Expect(fields.Expiry).To(Equal("03/2027"))
				Expect(fields.Name).To(Equal("Cofex Syrup"))
			})
		})

		When("the single line is all noise", func() {
			BeforeEach(func() {
				text = RecognizedText{"Dosage as directed"}
			})

			It("should return it verbatim", func() {
				Expect(fields.Name).To(Equal("Dosage as directed"))
				Expect(trace["name"]).To(Equal("nameFromFirstLine"))
			})
		})

		When("the brand is missing from the dictionary", func() {
			BeforeEach(func() {
				extractor = New(Vocabulary{
					MedicineNames: []string{"BRUFEN"},
					NoiseKeywords: DefaultVocabulary().NoiseKeywords,
				})
				text = RecognizedText{"PANADOL EXTRA", "500mg", "EXP: 12/2026", "B.No: A45X"}
			})

			It("should fall back to the first clean line", func() {
				Expect(fields.Name).To(Equal("PANADOL EXTRA"))
				Expect(fields.Expiry).To(Equal("12/2026"))
				Expect(fields.BatchNo).To(Equal("A45X"))
			})
		})

		When("lines carry noise keywords", func() {
			BeforeEach(func() {
				text = RecognizedText{"Keep out of reach of children", "Rx only", "Vormax"}
			})

			It("should skip them", func() {
				Expect(fields.Name).To(Equal("Vormax"))
			})
		})

		When("lines are short or all digits", func() {
			BeforeEach(func() {
				text = RecognizedText{"12", "1234567", "Ab", "Mexolin"}
			})

			It("should skip them", func() {
				Expect(fields.Name).To(Equal("Mexolin"))
			})
		})

		When("the candidate line is long", func() {
			BeforeEach(func() {
				text = RecognizedText{strings.TrimSpace(strings.Repeat("Zentovex ", 7))}
			})

			It("should truncate to 50 characters", func() {
				Expect(utf8.RuneCountInString(fields.Name)).To(BeNumerically("<=", 50))
				Expect(fields.Name).To(HavePrefix("Zentovex Zentovex"))
			})
		})

		When("every line is noise and the first line holds the expiry", func() {
			BeforeEach(func() {
				text = RecognizedText{"EXP 12/2026", "Tablets"}
			})

			It("should fall back to the second line", func() {
				Expect(fields.Name).To(Equal("Tablets"))
				Expect(trace["name"]).To(Equal("nameFromFirstLine"))
			})
		})

		When("the only line holds the expiry", func() {
			BeforeEach(func() {
				text = RecognizedText{"EXP 12/2026"}
			})

			It("should fall back to that line", func() {
				Expect(fields.Name).To(Equal("EXP 12/2026"))
			})
		})

		When("every line is noise and there is no expiry", func() {
			BeforeEach(func() {
				text = RecognizedText{"Rx only", "Store below 25C"}
			})

			It("should fall back to the first line", func() {
				Expect(fields.Name).To(Equal("Rx only"))
			})
		})
	})

	Describe("field independence", func() {
		It("should not change other fields when a batch line is added", func() {
			base := RecognizedText{"PANADOL", "500mg", "EXP 01/2027"}
			withBatch := append(RecognizedText{}, base...)
			withBatch = append(withBatch, "Lot 9921")

			a := extractor.Extract(base)
			b := extractor.Extract(withBatch)

			Expect(b.BatchNo).To(Equal("9921"))
			Expect(a.BatchNo).To(BeEmpty())
			Expect(b.Name).To(Equal(a.Name))
			Expect(b.Expiry).To(Equal(a.Expiry))
			Expect(b.Strength).To(Equal(a.Strength))
		})
	})

	Describe("determinism", func() {
		It("should return identical fields from concurrent calls", func() {
			input := RecognizedText{"PANADOL EXTRA", "500mg", "EXP: 12/2026", "B.No: A45X"}
			want := extractor.Extract(input)

			var wg sync.WaitGroup
			results := make([]Fields, 16)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i] = extractor.Extract(input)
				}(i)
			}
			wg.Wait()

			for _, got := range results {
				Expect(got).To(Equal(want))
			}
		})
	})
})

var _ = DescribeTable("expiry",
	func(line, want string) {
		Expect(NewDefault().Extract(RecognizedText{line}).Expiry).To(Equal(want))
	},
	Entry("labelled month/year", "EXP: 12/2026", "12/2026"),
	Entry("day-month-year with dashes", "Expiry 15-08-2025", "15-08-2025"),
	Entry("full date beats month/year", "EXP 12/05/2026", "12/05/2026"),
	Entry("two-digit year", "Use Before 03/25", "03/25"),
	Entry("day and month name", "Best By 15 DEC 2024", "15 DEC 2024"),
	Entry("month name only", "EXP DEC 2024", "DEC 2024"),
	Entry("long month abbreviation", "Exp Sept 2025", "Sept 2025"),
	Entry("dotted separator", "Exp. 09.2027", "09.2027"),
	Entry("misread label", "EXF 11/2026", "11/2026"),
	Entry("no label", "12/2026", ""),
	Entry("manufacturing date", "Mfg. Date: 01/2024", ""),
	Entry("dosage interval", "Dosage 1-2 tabs every 04-06 hrs", ""),
	Entry("date runs into digits", "EXP 12/20265", ""),
	Entry("phone number", "Call 0300-1234567", ""),
	Entry("no date", "Keep in a dry place", ""),
)

var _ = Describe("expiry across lines", func() {
	It("should skip an unlabelled date on an earlier line", func() {
		fields := NewDefault().Extract(RecognizedText{"Mfg 01/2024", "Exp 01/2027"})
		Expect(fields.Expiry).To(Equal("01/2027"))
	})

	It("should not report the manufacturing date printed above the expiry", func() {
		fields := NewDefault().Extract(RecognizedText{"Mfg. Date: 01/2024", "EXP: 12/2026"})
		Expect(fields.Expiry).To(Equal("12/2026"))
	})

	It("should not read a dosage range as a date", func() {
		fields := NewDefault().Extract(RecognizedText{"Dosage 1-2 tabs every 04-06 hrs", "EXP: 12/2026"})
		Expect(fields.Expiry).To(Equal("12/2026"))
	})

	It("should take the first labelled line", func() {
		fields := NewDefault().Extract(RecognizedText{"EXP 03/2026", "Use Before 05/2026"})
		Expect(fields.Expiry).To(Equal("03/2026"))
	})
})

var _ = DescribeTable("batch number",
	func(line, want string) {
		Expect(NewDefault().Extract(RecognizedText{line}).BatchNo).To(Equal(want))
	},
	Entry("B.No", "B.No: A45X", "A45X"),
	Entry("B.No.", "B.No. 7781", "7781"),
	Entry("Batch", "Batch: XK22", "XK22"),
	Entry("Batch No", "BATCH NO. 55A1", "55A1"),
	Entry("Lot", "Lot 9921", "9921"),
	Entry("token stops at lower case", "Batch A45x", "A45"),
	Entry("lower-case token", "batch: abc", ""),
	Entry("label inside a word", "Slot A1", ""),
	Entry("no label", "A45X", ""),
)

var _ = DescribeTable("strength",
	func(line, want string) {
		Expect(NewDefault().Extract(RecognizedText{line}).Strength).To(Equal(want))
	},
	Entry("milligrams", "500mg", "500mg"),
	Entry("decimal with space", "Syrup 2.5 ml", "2.5 ml"),
	Entry("percent", "Cream 1%", "1%"),
	Entry("grams", "1g sachet", "1g"),
	Entry("upper-case unit", "250 MG", "250 MG"),
	Entry("first of several", "Paracetamol 500mg / Caffeine 65mg", "500mg"),
	Entry("micrograms are not a unit", "250mcg", ""),
	Entry("no unit", "Pack of 10", ""),
)
