// Package platform classifies product URLs into the retailers pricewatch
// knows how to scrape.
package platform

import (
	"strings"

	"github.com/use-agent/pricewatch/models"
)

// Rule maps a URL substring to a platform.
type Rule struct {
	Match    string
	Platform models.Platform
}

// rules is checked in order; the first match wins.
var rules = []Rule{
	{Match: "biggo.com.tw", Platform: models.PlatformBigGo},
	{Match: "momoshop.com.tw", Platform: models.PlatformMomo},
	{Match: "pchome.com.tw", Platform: models.PlatformPChome},
	{Match: "shopee.tw", Platform: models.PlatformShopee},
}

// Resolve returns the platform a product URL belongs to, or
// models.PlatformUnknown. It never fails: malformed input simply does not
// match any rule.
func Resolve(rawURL string) models.Platform {
	u := strings.ToLower(rawURL)
	for _, r := range rules {
		if strings.Contains(u, r.Match) {
			return r.Platform
		}
	}
	return models.PlatformUnknown
}

// Rules returns a copy of the resolution table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
