package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maceasy/maceasy/internal/catalog"
)

// ParsePayload turns a raw model response into a Payload. Models often
// wrap the JSON in markdown code fences; those are stripped first.
// This is the only place a structural error can occur: the response
// must contain a JSON object with a "lines" array. Individual line
// entries that are not objects are dropped silently.
func ParsePayload(text string) (*Payload, error) {
	raw := text
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	// UseNumber keeps amounts out of float64, so no digits are lost
	// before the decimal conversion in Normalize.
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	rawLines, ok := obj["lines"]
	if !ok {
		return nil, fmt.Errorf("missing 'lines' key in response")
	}
	slice, ok := rawLines.([]any)
	if !ok {
		return nil, fmt.Errorf("'lines' is %T, want array", rawLines)
	}

	payload := &Payload{RawText: raw}
	for _, item := range slice {
		if m, ok := item.(map[string]any); ok {
			payload.Lines = append(payload.Lines, m)
		}
	}
	return payload, nil
}

// Normalize coerces every untrusted field of the payload into the
// validated line model. Bad individual fields never fail the call;
// each degrades to its documented default independently:
//
//	date      -> today when not parseable as a date
//	quantity  -> 1 on parse failure or negative value
//	unitPrice, amount, vatRate, amountExclVat -> 0 likewise
//	currency  -> "SEK" only when empty; unknown codes pass through
//	supplier  -> "Okänd leverantör"
//	category  -> catalog fallback when unresolvable
//	isDomestic -> true when absent; foreign lines get vatRate forced
//	              to 0 (accounting policy for foreign receipts)
func Normalize(p *Payload, now time.Time) Result {
	result := Result{RawText: p.RawText}
	for _, raw := range p.Lines {
		line := Line{
			Date:          dateField(raw, "date", now),
			Supplier:      stringField(raw, "supplier", "Okänd leverantör"),
			Description:   stringField(raw, "description", ""),
			Quantity:      decimalField(raw, "quantity", decimal.NewFromInt(1)),
			UnitPrice:     decimalField(raw, "unitPrice", decimal.Zero),
			Currency:      stringField(raw, "currency", "SEK"),
			VATRate:       decimalField(raw, "vatRate", decimal.Zero),
			Amount:        decimalField(raw, "amount", decimal.Zero),
			AmountExclVat: decimalField(raw, "amountExclVat", decimal.Zero),
			IsDomestic:    boolField(raw, "isDomestic", true),
		}

		category := stringField(raw, "category", "")
		if c, ok := catalog.Resolve(category); ok {
			line.Category = c.Code
		} else {
			line.Category = catalog.Fallback().Code
		}

		if !line.IsDomestic {
			line.VATRate = decimal.Zero
		}

		result.Lines = append(result.Lines, line)
	}
	return result
}

// stringField returns a trimmed non-empty string value or the default
func stringField(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// decimalField accepts JSON numbers and numeric strings. Parse
// failures and negative values both fall back to the default.
func decimalField(m map[string]any, key string, def decimal.Decimal) decimal.Decimal {
	v, ok := m[key]
	if !ok {
		return def
	}

	var d decimal.Decimal
	switch val := v.(type) {
	case float64:
		d = decimal.NewFromFloat(val)
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return def
		}
		d = parsed
	case json.Number:
		parsed, err := decimal.NewFromString(val.String())
		if err != nil {
			return def
		}
		d = parsed
	default:
		return def
	}

	if d.Sign() < 0 {
		return def
	}
	return d
}

func boolField(m map[string]any, key string, def bool) bool {
	v, ok := m[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// dateFormats are alternates the models produce despite the prompt
// asking for ISO dates.
var dateFormats = []string{
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
}

// dateField returns an ISO YYYY-MM-DD date. Alternate layouts are
// re-rendered as ISO; anything unparseable becomes the processing date.
func dateField(m map[string]any, key string, now time.Time) string {
	s := stringField(m, key, "")
	if s == "" {
		return now.Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s
	}
	for _, format := range dateFormats {
		if d, err := time.Parse(format, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return now.Format("2006-01-02")
}
