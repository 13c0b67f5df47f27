package scanning

import (
	"fmt"

	"github.com/maceasy/maceasy/internal/catalog"
)

// extractionPrompt is the shared Swedish prompt used by all backends.
// The category catalog is injected so the model classifies against the
// exact Maconomy list.
func extractionPrompt() string {
	return fmt.Sprintf(`Du är en expert på att extrahera information från kvitton för redovisningssystem.

Analysera detta kvitto och extrahera följande information för varje rad/artikel:

1. Datum (format: YYYY-MM-DD)
2. Leverantör/företagsnamn
3. Belopp inklusive moms
4. Valuta (SEK, EUR, USD, NOK, DKK)
5. Momssats (procent, t.ex. 25, 12, 6, 0)
6. Belopp exklusive moms (beräkna detta)
7. Om transaktionen är inrikes (Sverige) eller utrikes
8. En kort beskrivning av vad som köpts

Kategorisera varje rad enligt följande Maconomy-kategorier:
%s

VIKTIGT:
- Om kvittot har flera olika momssatser, dela upp i separata rader
- Om flera artiklar har samma momssats, kan de kombineras till en rad
- Beräkna belopp exklusive moms korrekt: belopp_inkl_moms / (1 + momssats/100)
- Välj den mest passande kategorin baserat på vad som köpts
- Om osäker, använd kategori %s
- Utrikes kvitton har momssats 0

Svara ENDAST med giltig JSON i följande format (ingen annan text):
{
  "lines": [
    {
      "date": "YYYY-MM-DD",
      "supplier": "Företagsnamn",
      "description": "Beskrivning",
      "quantity": 1,
      "unitPrice": 0.00,
      "amount": 1000.00,
      "currency": "SEK",
      "vatRate": 25,
      "amountExclVat": 800.00,
      "isDomestic": true,
      "category": "7"
    }
  ]
}`, catalog.PromptList(), catalog.Fallback().Code)
}
