package ledger

import "github.com/shopspring/decimal"

// ReceiptLine is one exported accounting entry derived from a receipt.
// Amount is the row total including VAT; AmountExclVat is derived from
// Amount and VATRate by the recomputation rules in recompute.go.
type ReceiptLine struct {
	ID            string          `json:"id"`
	FileName      string          `json:"fileName"`
	Date          string          `json:"date"` // YYYY-MM-DD
	Supplier      string          `json:"supplier"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Currency      string          `json:"currency"`
	VATRate       decimal.Decimal `json:"vatRate"` // percent, 0-100
	Amount        decimal.Decimal `json:"amount"`
	AmountExclVat decimal.Decimal `json:"amountExclVat"`
	IsDomestic    bool            `json:"isDomestic"`
	Category      string          `json:"category"` // catalog code
}

// ExtractionResult is the outcome of processing one uploaded file:
// zero or more normalized lines plus the raw model response for
// diagnostics. It is transient and never persisted as-is.
type ExtractionResult struct {
	Lines   []ReceiptLine `json:"lines"`
	RawText string        `json:"rawText,omitempty"`
}
