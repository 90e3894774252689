package format

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FmtCurrency formats a dollar amount with locale digit grouping.
// Whole amounts drop the cents. Example: FmtCurrency(1250, "USD", "en") => "$1,250"
func FmtCurrency(amount float64, currency, lang string) string {
	p := message.NewPrinter(tagFor(lang))
	neg := amount < 0
	amount = math.Abs(amount)
	var body string
	if amount == math.Trunc(amount) {
		body = p.Sprintf("%d", int64(amount))
	} else {
		body = p.Sprintf("%.2f", amount)
	}
	symbol := "$"
	switch strings.ToUpper(currency) {
	case "", "USD":
	default:
		symbol = strings.ToUpper(currency) + " "
	}
	if neg {
		return "-" + symbol + body
	}
	return symbol + body
}

// FmtNumber groups digits for lang.
func FmtNumber(n int64, lang string) string {
	return message.NewPrinter(tagFor(lang)).Sprintf("%d", n)
}

var spanishMonths = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

// FmtDate formats time in a locale-friendly short form.
func FmtDate(t time.Time, lang string) string {
	switch baseLang(lang) {
	case "es":
		return t.Format("2") + " " + spanishMonths[t.Month()-1] + " " + t.Format("2006")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// FmtISODate formats a YYYY-MM-DD string, returning it unchanged when it does not parse.
func FmtISODate(s, lang string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return FmtDate(t, lang)
}

func baseLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}

func tagFor(lang string) language.Tag {
	tag, err := language.Parse(baseLang(lang))
	if err != nil {
		return language.English
	}
	return tag
}
