package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/pricewatch/render"
)

// NormalizePrice strips every non-digit from text and parses the rest as a
// whole-unit price. ok is false when no digits remain, the value overflows,
// or the price is zero.
func NormalizePrice(text string) (price int, ok bool) {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// currencyPattern matches a dollar or NT$ marker followed by a digit group,
// optionally comma separated in groups of three.
var currencyPattern = regexp.MustCompile(`(\$|NT\$)\s?(\d{1,3}(,\d{3})*)`)

// FindPriceInText returns the first currency amount in text.
func FindPriceInText(text string) (int, bool) {
	m := currencyPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return NormalizePrice(m[2])
}

// bodyTextStrategy scans the visible page text for a currency amount.
type bodyTextStrategy struct{}

func (bodyTextStrategy) Name() string { return "body_text" }

func (bodyTextStrategy) Attempt(doc render.Document) Partial {
	return Partial{Price: positive(FindPriceInText(doc.FullText()))}
}
