package scanning

import "github.com/shopspring/decimal"

// Payload is the raw, untrusted extraction payload for one receipt:
// whatever the vision model answered, structurally checked to be an
// object with a "lines" array but otherwise uninterpreted. Field-level
// validation happens in Normalize, never here.
type Payload struct {
	Lines   []map[string]any
	RawText string // original model response, diagnostic only
}

// Line is one normalized candidate ledger line with every field
// coerced to a safe value. IDs are not assigned here; the ledger
// service owns those.
type Line struct {
	Date          string
	Supplier      string
	Description   string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Currency      string
	VATRate       decimal.Decimal
	Amount        decimal.Decimal
	AmountExclVat decimal.Decimal
	IsDomestic    bool
	Category      string // catalog code, always resolvable
}

// Result is the normalized outcome for one scanned file
type Result struct {
	Lines   []Line
	RawText string
}

// Scanner defines the interface for receipt extraction backends
type Scanner interface {
	// ScanReceipt sends a receipt image/PDF to the model and returns
	// the structurally parsed payload
	ScanReceipt(imageData []byte, contentType string) (*Payload, error)
	// Close releases backend resources
	Close() error
}
