package fields

import (
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractSender", func() {
	var rule SenderRule

	BeforeEach(func() {
		rule = *MoneyTransfer().Sender
	})

	It("should read the sender block of a transfer receipt", func() {
		s, ok := ExtractSender(Lines(transferReceipt), rule)
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal(Sender{
			Name:    "JUAN PEREZ",
			Phone:   "718-555-0199",
			Address: "123 Main St",
			City:    "Brooklyn",
			State:   "NY",
			Zip:     "11201",
		}))
	})

	It("should take the name from the label line", func() {
		s, ok := ExtractSender([]string{"Sender: Ana Maria Gomez", "555 123 4567", "Recipient", "Luis Ortega"}, rule)
		Expect(ok).To(BeTrue())
		Expect(s.Name).To(Equal("Ana Maria Gomez"))
		Expect(s.Phone).To(Equal("555-123-4567"))
	})

	It("should keep the last ten digits of a phone number", func() {
		s, ok := ExtractSender([]string{"Remitente", "Rosa Delgado", "Tel +1 (212) 555-7788"}, rule)
		Expect(ok).To(BeTrue())
		Expect(s.Phone).To(Equal("212-555-7788"))
	})

	It("should read a zip+4 and a short state", func() {
		s, ok := ExtractSender([]string{"Sender", "Carla Nunez", "Austin, tx 78701-1234"}, rule)
		Expect(ok).To(BeTrue())
		Expect(s.City).To(Equal("Austin"))
		Expect(s.State).To(Equal("TX"))
		Expect(s.Zip).To(Equal("78701"))
	})

	It("should not read past the end label", func() {
		s, ok := ExtractSender([]string{"Sender", "Carla Nunez", "Beneficiary", "45 Oak Ave"}, rule)
		Expect(ok).To(BeTrue())
		Expect(s.Address).To(BeEmpty())
	})

	It("should report nothing without a name line", func() {
		_, ok := ExtractSender([]string{"Sender", "12345", "Ana", "Recipient", "Luis Ortega"}, rule)
		Expect(ok).To(BeFalse())
	})

	It("should report nothing without a start label", func() {
		_, ok := ExtractSender([]string{"Luis Ortega", "45 Oak Ave"}, rule)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("SenderRule.Section", func() {
	It("should stop after MaxLines lines", func() {
		lines := []string{"Sender"}
		for i := 0; i < 20; i++ {
			lines = append(lines, "line "+strconv.Itoa(i))
		}
		rule := *MoneyTransfer().Sender
		Expect(rule.Section(lines)).To(HaveLen(rule.MaxLines))
	})
})

var _ = Describe("cleanName", func() {
	DescribeTable("cleaning name lines",
		func(line, expected string) {
			Expect(cleanName(line)).To(Equal(expected))
		},
		Entry("label prefix and initials", "Nombre: J. Carlos y Rosa M", "Carlos y Rosa"),
		Entry("short trailing token", "Pedro Ramirez Jr", "Pedro Ramirez"),
		Entry("punctuation", "*ANA-LUISA* GOMEZ.", "ANA LUISA GOMEZ"),
	)
})

var _ = Describe("stateCode", func() {
	DescribeTable("mapping states",
		func(state, expected string) {
			Expect(stateCode(state)).To(Equal(expected))
		},
		Entry("long name", "New York", "NY"),
		Entry("mixed case long name", "texas", "TX"),
		Entry("two letters", "nj", "NJ"),
		Entry("unknown", "Ontario", "Ontario"),
	)
})
