package ledger

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func testLine(id, supplier string) ReceiptLine {
	return ReceiptLine{
		ID:            id,
		FileName:      "kvitto.jpg",
		Date:          "2024-05-10",
		Supplier:      supplier,
		Quantity:      dec("1"),
		UnitPrice:     dec("0"),
		Currency:      "SEK",
		VATRate:       dec("25"),
		Amount:        dec("125.00"),
		AmountExclVat: dec("100.00"),
		IsDomestic:    true,
		Category:      "18",
	}
}

var _ = Describe("BoltStore", func() {
	var (
		tmpDir string
		dbPath string
		store  *BoltStore
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		store, err = NewBoltStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("Session", func() {
		It("should issue a session token on first open", func() {
			session, err := store.Session()
			Expect(err).NotTo(HaveOccurred())
			Expect(session).NotTo(BeEmpty())
		})

		It("should keep the token across reopens", func() {
			session, err := store.Session()
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Close()).To(Succeed())

			reopened, err := NewBoltStore(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			again, err := reopened.Session()
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(session))
			store = nil
		})
	})

	Describe("AppendLines", func() {
		var session string

		BeforeEach(func() {
			var err error
			session, err = store.Session()
			Expect(err).NotTo(HaveOccurred())
		})

		It("should preserve insertion order across batches", func() {
			Expect(store.AppendLines(session, []ReceiptLine{
				testLine("line-1-0", "ICA"),
				testLine("line-1-1", "Coop"),
			})).To(Succeed())
			Expect(store.AppendLines(session, []ReceiptLine{
				testLine("line-2-0", "Hemköp"),
			})).To(Succeed())

			lines, err := store.ListLines()
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(HaveLen(3))
			Expect(lines[0].Supplier).To(Equal("ICA"))
			Expect(lines[1].Supplier).To(Equal("Coop"))
			Expect(lines[2].Supplier).To(Equal("Hemköp"))
		})

		It("should reject a line ID already in the ledger", func() {
			Expect(store.AppendLines(session, []ReceiptLine{testLine("line-1-0", "ICA")})).To(Succeed())

			err := store.AppendLines(session, []ReceiptLine{testLine("line-1-0", "Coop")})
			Expect(err).To(MatchError(ContainSubstring("duplicate line id")))

			line, err := store.GetLine("line-1-0")
			Expect(err).NotTo(HaveOccurred())
			Expect(line.Supplier).To(Equal("ICA"))
		})

		It("should reject a stale session token", func() {
			_, err := store.Reset()
			Expect(err).NotTo(HaveOccurred())

			err = store.AppendLines(session, []ReceiptLine{testLine("line-1-0", "ICA")})
			Expect(err).To(MatchError(ErrSessionSuperseded))

			lines, err := store.ListLines()
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(BeEmpty())
		})
	})

	Describe("NextBatch", func() {
		It("should issue monotonically increasing tokens", func() {
			first, err := store.NextBatch()
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(Equal("line-1"))

			second, err := store.NextBatch()
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal("line-2"))
		})

		It("should continue the sequence after a reopen", func() {
			session, err := store.Session()
			Expect(err).NotTo(HaveOccurred())

			batch, err := store.NextBatch()
			Expect(err).NotTo(HaveOccurred())
			Expect(store.AppendLines(session, []ReceiptLine{testLine(batch+"-0", "ICA")})).To(Succeed())
			Expect(store.Close()).To(Succeed())

			reopened, err := NewBoltStore(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()
			store = nil

			// A token reissued here would mint the same line IDs the
			// ledger already holds.
			next, err := reopened.NextBatch()
			Expect(err).NotTo(HaveOccurred())
			Expect(next).NotTo(Equal(batch))

			Expect(reopened.AppendLines(session, []ReceiptLine{testLine(next+"-0", "Coop")})).To(Succeed())

			lines, err := reopened.ListLines()
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(HaveLen(2))
			Expect(lines[0].ID).NotTo(Equal(lines[1].ID))
		})
	})

	Describe("GetLine", func() {
		BeforeEach(func() {
			session, err := store.Session()
			Expect(err).NotTo(HaveOccurred())
			Expect(store.AppendLines(session, []ReceiptLine{testLine("line-1-0", "ICA")})).To(Succeed())
		})

		It("should return a stored line", func() {
			line, err := store.GetLine("line-1-0")
			Expect(err).NotTo(HaveOccurred())
			Expect(line.Supplier).To(Equal("ICA"))
			Expect(line.Amount.StringFixed(2)).To(Equal("125.00"))
		})

		It("should error for an unknown ID", func() {
			_, err := store.GetLine("line-9-9")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("UpdateLine", func() {
		BeforeEach(func() {
			session, err := store.Session()
			Expect(err).NotTo(HaveOccurred())
			Expect(store.AppendLines(session, []ReceiptLine{testLine("line-1-0", "ICA")})).To(Succeed())
		})

		It("should run the edit through the recomputation engine", func() {
			found, err := store.UpdateLine("line-1-0", Edit{VATRate: decPtr("12")})
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())

			line, err := store.GetLine("line-1-0")
			Expect(err).NotTo(HaveOccurred())
			Expect(line.VATRate.StringFixed(2)).To(Equal("12.00"))
			Expect(line.AmountExclVat.StringFixed(2)).To(Equal("111.61"))
		})

		It("should treat an absent ID as a no-op", func() {
			found, err := store.UpdateLine("line-9-9", Edit{Supplier: strPtr("X")})
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})

	Describe("DeleteLine", func() {
		BeforeEach(func() {
			session, err := store.Session()
			Expect(err).NotTo(HaveOccurred())
			Expect(store.AppendLines(session, []ReceiptLine{
				testLine("line-1-0", "ICA"),
				testLine("line-1-1", "Coop"),
			})).To(Succeed())
		})

		It("should remove exactly one line", func() {
			Expect(store.DeleteLine("line-1-0")).To(Succeed())

			lines, err := store.ListLines()
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(HaveLen(1))
			Expect(lines[0].ID).To(Equal("line-1-1"))
		})

		It("should leave the ledger unchanged for an unknown ID", func() {
			Expect(store.DeleteLine("line-9-9")).To(Succeed())

			lines, err := store.ListLines()
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(HaveLen(2))
		})
	})

	Describe("Reset", func() {
		It("should clear all lines and rotate the session", func() {
			session, err := store.Session()
			Expect(err).NotTo(HaveOccurred())
			Expect(store.AppendLines(session, []ReceiptLine{testLine("line-1-0", "ICA")})).To(Succeed())

			fresh, err := store.Reset()
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh).NotTo(Equal(session))

			lines, err := store.ListLines()
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(BeEmpty())

			current, err := store.Session()
			Expect(err).NotTo(HaveOccurred())
			Expect(current).To(Equal(fresh))
		})
	})
})
