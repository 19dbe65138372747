package valueobject

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// DefaultPriceTemplate renders the symbol immediately before the amount.
const DefaultPriceTemplate = "{symbol}{amount}"

var currencySymbols = map[Currency]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
	JPY: "¥",
	CNY: "¥",
	RUB: "₽",
}

// MoneyLocale is the currency and formatting profile used to render prices.
type MoneyLocale struct {
	Currency Currency
	Symbol   string
	Template string
	Language language.Tag
}

// NewMoneyLocale builds a locale for the currency, using the known symbol or
// the ISO code when the currency has no registered symbol.
func NewMoneyLocale(c Currency, lang language.Tag) MoneyLocale {
	symbol, ok := currencySymbols[c]
	if !ok {
		symbol = string(c) + " "
	}
	return MoneyLocale{
		Currency: c,
		Symbol:   symbol,
		Template: DefaultPriceTemplate,
		Language: lang,
	}
}

// DefaultMoneyLocale returns the USD / English locale
func DefaultMoneyLocale() MoneyLocale {
	return NewMoneyLocale(DefaultCurrency, language.English)
}

// WithTemplate returns a copy of the locale using another price template.
// The template may reference {symbol} and {amount}.
func (l MoneyLocale) WithTemplate(template string) MoneyLocale {
	l.Template = template
	return l
}

// FormatPrice renders an amount with the locale symbol and two fixed decimals
func (l MoneyLocale) FormatPrice(amount decimal.Decimal) string {
	template := l.Template
	if template == "" {
		template = DefaultPriceTemplate
	}
	return strings.NewReplacer(
		"{symbol}", l.Symbol,
		"{amount}", amount.StringFixed(2),
	).Replace(template)
}
