package extract

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Vocabulary", func() {
	Describe("DefaultVocabulary", func() {
		It("should start the dictionary with PARACETAMOL", func() {
			Expect(DefaultVocabulary().MedicineNames[0]).To(Equal("PARACETAMOL"))
		})

		It("should include the single-letter gram keyword", func() {
			Expect(DefaultVocabulary().NoiseKeywords).To(ContainElement("g"))
		})
	})

	Describe("custom vocabulary", func() {
		It("should drive the dictionary strategy", func() {
			e := New(Vocabulary{MedicineNames: []string{" zentovex "}})
			Expect(e.Extract(RecognizedText{"ZENTOVEX 20 tablets"}).Name).To(Equal("Zentovex"))
		})

		It("should default the name length", func() {
			e := New(Vocabulary{MedicineNames: []string{"X"}})
			Expect(e.Vocabulary().NameMaxLength).To(Equal(50))
		})

		It("should accept a line when there are no noise keywords", func() {
			e := New(Vocabulary{MedicineNames: []string{"ZENTOVEX"}})
			Expect(e.Extract(RecognizedText{"Rx only"}).Name).To(Equal("Rx only"))
		})
	})

	Describe("LoadVocabulary", func() {
		var (
			path  string
			body  string
			vocab Vocabulary
			err   error
		)

		BeforeEach(func() {
			path = filepath.Join(GinkgoT().TempDir(), "vocabulary.json")
		})

		JustBeforeEach(func() {
			if body != "" {
				Expect(os.WriteFile(path, []byte(body), 0o600)).To(Succeed())
			}
			vocab, err = LoadVocabulary(path)
		})

		When("the file overrides only the dictionary", func() {
			BeforeEach(func() {
				body = `{"medicine_names": ["calpol", "  ", "Disprin"]}`
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should normalize the names", func() {
				Expect(vocab.MedicineNames).To(Equal([]string{"CALPOL", "DISPRIN"}))
			})

			It("should keep the default noise keywords", func() {
				Expect(vocab.NoiseKeywords).To(Equal(DefaultVocabulary().NoiseKeywords))
			})
		})

		When("the file sets noise keywords and length", func() {
			BeforeEach(func() {
				body = `{"noise_keywords": ["RX", "Only"], "name_max_length": 20}`
			})

			It("should lower-case the keywords", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(vocab.NoiseKeywords).To(Equal([]string{"rx", "only"}))
				Expect(vocab.NameMaxLength).To(Equal(20))
			})
		})

		When("the dictionary is emptied", func() {
			BeforeEach(func() {
				body = `{"medicine_names": []}`
			})

			It("should return an error", func() {
				Expect(err).To(MatchError(ContainSubstring("no medicine names")))
			})
		})

		DescribeTable("files that do not match the schema",
			func(doc string) {
				path := filepath.Join(GinkgoT().TempDir(), "bad.json")
				Expect(os.WriteFile(path, []byte(doc), 0o644)).To(Succeed())

				_, err := LoadVocabulary(path)
				Expect(err).To(MatchError(ContainSubstring("does not match schema")))
			},
			Entry("names as a string", `{"medicine_names": "PANADOL"}`),
			Entry("numeric keyword", `{"noise_keywords": ["mg", 5]}`),
			Entry("negative length", `{"name_max_length": -3}`),
			Entry("fractional length", `{"name_max_length": 2.5}`),
			Entry("unknown key", `{"medicines": ["PANADOL"]}`),
			Entry("top-level array", `["PANADOL"]`),
		)

		When("the file is not JSON", func() {
			BeforeEach(func() {
				body = `medicine_names: [PANADOL]`
			})

			It("should return a parse error", func() {
				Expect(err).To(MatchError(ContainSubstring("failed to parse vocabulary")))
			})
		})

		When("the file does not exist", func() {
			BeforeEach(func() {
				body = ""
			})

			It("should return a read error", func() {
				Expect(err).To(MatchError(ContainSubstring("failed to read vocabulary")))
			})
		})
	})
})
