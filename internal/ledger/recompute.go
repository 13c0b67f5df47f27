package ledger

import "github.com/shopspring/decimal"

// Edit is a field-level change to a ReceiptLine. Nil fields are left
// untouched. AmountExclVat is not editable; it is always derived.
type Edit struct {
	Date        *string          `json:"date,omitempty"`
	Supplier    *string          `json:"supplier,omitempty"`
	Description *string          `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
	VATRate     *decimal.Decimal `json:"vatRate,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	IsDomestic  *bool            `json:"isDomestic,omitempty"`
	Category    *string          `json:"category,omitempty"`
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Apply returns the line with the edit applied and all derived fields
// reconciled. It is a pure function: the input line is not mutated and
// no other rows are consulted.
//
// Derivation rules:
//   - editing Quantity or UnitPrice recomputes Amount = round2(q * p),
//     using the stored value for whichever factor was not edited
//   - editing Amount directly leaves Quantity and UnitPrice alone; the
//     override is deliberately one-way
//   - any change to Amount or VATRate re-derives
//     AmountExclVat = round2(amount / (1 + vatRate/100))
//
// Rounding is to 2 decimals, half away from zero, everywhere.
// Applying an empty Edit is a no-op.
func Apply(line ReceiptLine, e Edit) ReceiptLine {
	if e.Date != nil {
		line.Date = *e.Date
	}
	if e.Supplier != nil {
		line.Supplier = *e.Supplier
	}
	if e.Description != nil {
		line.Description = *e.Description
	}
	if e.Currency != nil {
		line.Currency = *e.Currency
	}
	if e.IsDomestic != nil {
		line.IsDomestic = *e.IsDomestic
	}
	if e.Category != nil {
		line.Category = *e.Category
	}

	if e.Quantity != nil {
		line.Quantity = clampNonNegative(*e.Quantity)
	}
	if e.UnitPrice != nil {
		line.UnitPrice = clampNonNegative(*e.UnitPrice)
	}

	amountChanged := false
	if e.Quantity != nil || e.UnitPrice != nil {
		line.Amount = line.Quantity.Mul(line.UnitPrice).Round(2)
		amountChanged = true
	}
	if e.Amount != nil {
		// Direct override wins over the quantity * price derivation.
		line.Amount = clampNonNegative(*e.Amount)
		amountChanged = true
	}

	if e.VATRate != nil {
		line.VATRate = clampRate(*e.VATRate)
	}
	if amountChanged || e.VATRate != nil {
		line.AmountExclVat = exclVat(line.Amount, line.VATRate, line.AmountExclVat)
	}

	return line
}

// exclVat derives the pre-tax amount. The denominator cannot be zero
// while VATRate honors its non-negativity invariant, but a bad stored
// value must not cause a division: the previous value is kept instead.
func exclVat(amount, vatRate, previous decimal.Decimal) decimal.Decimal {
	denom := one.Add(vatRate.Div(hundred))
	if denom.Sign() <= 0 {
		return previous
	}
	return amount.Div(denom).Round(2)
}

func clampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.Zero
	}
	return d
}

func clampRate(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}
