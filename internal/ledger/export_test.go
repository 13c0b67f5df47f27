package ledger

import (
	"bytes"
	"encoding/csv"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Serialize", func() {
	var (
		lines  []ReceiptLine
		output []byte
		err    error
	)

	BeforeEach(func() {
		lines = nil
	})

	JustBeforeEach(func() {
		output, err = Serialize(lines)
	})

	When("the ledger is empty", func() {
		It("should not error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should produce a header-only file", func() {
			body := strings.TrimPrefix(string(output), string(utf8BOM))
			Expect(strings.TrimRight(body, "\n")).To(Equal(
				"Datum;Leverantör;Beskrivning;Antal;Styckpris;Belopp inkl. moms;Valuta;Momssats (%);Belopp exkl. moms;Inrikes;Kategori"))
		})
	})

	When("the ledger has lines", func() {
		BeforeEach(func() {
			lines = []ReceiptLine{
				{
					ID:            "line-1-0",
					FileName:      "taxi.pdf",
					Date:          "2024-05-10",
					Supplier:      "Taxi Stockholm",
					Description:   "Resa till kund",
					Quantity:      dec("1"),
					UnitPrice:     dec("0"),
					Currency:      "SEK",
					VATRate:       dec("6"),
					Amount:        dec("318"),
					AmountExclVat: dec("300"),
					IsDomestic:    true,
					Category:      "7",
				},
				{
					ID:            "line-1-1",
					FileName:      "hotel.pdf",
					Date:          "2024-05-11",
					Supplier:      "Hotel Cæsar",
					Description:   "Övernattning; ett dygn",
					Quantity:      dec("2"),
					UnitPrice:     dec("150.005"),
					Currency:      "EUR",
					VATRate:       dec("0"),
					Amount:        dec("300.01"),
					AmountExclVat: dec("300.01"),
					IsDomestic:    false,
					Category:      "10",
				},
			}
		})

		It("should start with a UTF-8 byte-order mark", func() {
			Expect(bytes.HasPrefix(output, []byte{0xEF, 0xBB, 0xBF})).To(BeTrue())
		})

		It("should render numeric cells with exactly two decimals", func() {
			Expect(string(output)).To(ContainSubstring("318.00"))
			Expect(string(output)).To(ContainSubstring("6.00"))
			Expect(string(output)).To(ContainSubstring("150.01"))
		})

		It("should render the domestic flag as Ja/Nej", func() {
			Expect(string(output)).To(ContainSubstring(";Ja;"))
			Expect(string(output)).To(ContainSubstring(";Nej;"))
		})

		It("should quote cells containing the delimiter", func() {
			Expect(string(output)).To(ContainSubstring(`"Övernattning; ett dygn"`))
		})

		It("should round-trip through a CSV reader", func() {
			body := strings.TrimPrefix(string(output), string(utf8BOM))
			r := csv.NewReader(strings.NewReader(body))
			r.Comma = ';'
			records, readErr := r.ReadAll()
			Expect(readErr).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3)) // header + 2 rows

			Expect(records[1]).To(Equal([]string{
				"2024-05-10", "Taxi Stockholm", "Resa till kund",
				"1.00", "0.00", "318.00", "SEK", "6.00", "300.00", "Ja", "7",
			}))
			Expect(records[2]).To(Equal([]string{
				"2024-05-11", "Hotel Cæsar", "Övernattning; ett dygn",
				"2.00", "150.01", "300.01", "EUR", "0.00", "300.01", "Nej", "10",
			}))
		})
	})
})

var _ = Describe("ExportFilename", func() {
	It("should embed the export date", func() {
		t := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
		Expect(ExportFilename(t)).To(Equal("maconomy_export_2024-05-10.csv"))
	})
})
