package ledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// utf8BOM makes spreadsheet applications pick up the UTF-8 encoding of
// the Swedish headers.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// exportHeader is the fixed Maconomy import column layout.
var exportHeader = []string{
	"Datum",
	"Leverantör",
	"Beskrivning",
	"Antal",
	"Styckpris",
	"Belopp inkl. moms",
	"Valuta",
	"Momssats (%)",
	"Belopp exkl. moms",
	"Inrikes",
	"Kategori",
}

// Serialize renders the ledger snapshot as semicolon-delimited CSV with
// a UTF-8 byte-order mark. Numeric cells always carry exactly two
// fraction digits with a period separator. An empty ledger produces a
// header-only file.
func Serialize(lines []ReceiptLine) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for _, line := range lines {
		domestic := "Nej"
		if line.IsDomestic {
			domestic = "Ja"
		}
		record := []string{
			line.Date,
			line.Supplier,
			line.Description,
			line.Quantity.StringFixed(2),
			line.UnitPrice.StringFixed(2),
			line.Amount.StringFixed(2),
			line.Currency,
			line.VATRate.StringFixed(2),
			line.AmountExclVat.StringFixed(2),
			domestic,
			line.Category,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing line %s: %w", line.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename suggests a download name for an export taken at t
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("maconomy_export_%s.csv", t.Format("2006-01-02"))
}
