package attr

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.AmericanEnglish)

// Format renders the amount with its currency symbol. Unknown currency codes
// fall back to "CODE amount".
func (m Money) Format() string {
	unit, err := currency.ParseISO(m.Currency)
	if err != nil {
		return fmt.Sprintf("%s %.0f", m.Currency, m.Amount)
	}
	return moneyPrinter.Sprintf("%v", currency.Symbol(unit.Amount(m.Amount)))
}
