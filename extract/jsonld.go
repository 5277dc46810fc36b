package extract

import (
	"strconv"
	"strings"

	"github.com/use-agent/pricewatch/render"
	"github.com/ysmood/gson"
)

const jsonLDSelector = `script[type="application/ld+json"]`

// jsonLDStrategy reads offers.price from embedded structured data.
type jsonLDStrategy struct{}

func (jsonLDStrategy) Name() string { return "json_ld" }

func (jsonLDStrategy) Attempt(doc render.Document) Partial {
	for _, payload := range doc.QueryAllText(jsonLDSelector) {
		if price, ok := JSONLDPrice(payload); ok {
			return Partial{Price: &price}
		}
	}
	return Partial{}
}

// JSONLDPrice extracts a product price from one JSON-LD payload.
//
// Accepted shapes:
//   - an object with offers.price
//   - an array (or an object's @graph) holding an entry of @type Product
//     with offers.price
//
// offers may be a single offer or a list of offers. Malformed JSON yields
// ok == false.
func JSONLDPrice(payload string) (price int, ok bool) {
	j := gson.NewFrom(strings.TrimSpace(payload))
	switch j.Val().(type) {
	case map[string]interface{}:
		if offers, has := j.Gets("offers"); has {
			if p, ok := offerPrice(offers); ok {
				return p, true
			}
		}
		if graph, has := j.Gets("@graph"); has {
			return productInList(graph)
		}
	case []interface{}:
		return productInList(j)
	}
	return 0, false
}

func productInList(list gson.JSON) (int, bool) {
	for _, item := range list.Arr() {
		if !isProduct(item.Get("@type")) {
			continue
		}
		if offers, has := item.Gets("offers"); has {
			if p, ok := offerPrice(offers); ok {
				return p, true
			}
		}
	}
	return 0, false
}

func isProduct(t gson.JSON) bool {
	switch v := t.Val().(type) {
	case string:
		return v == "Product"
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

// offerPrice reads price (or lowPrice for aggregate offers) from an offer or
// the first priced offer of a list.
func offerPrice(offers gson.JSON) (int, bool) {
	if _, isList := offers.Val().([]interface{}); isList {
		for _, offer := range offers.Arr() {
			if p, ok := offerPrice(offer); ok {
				return p, true
			}
		}
		return 0, false
	}
	for _, key := range []string{"price", "lowPrice"} {
		if v, has := offers.Gets(key); has {
			if p, ok := priceValue(v); ok {
				return p, true
			}
		}
	}
	return 0, false
}

// priceValue converts a JSON string or number to a whole-unit price,
// dropping any fractional part.
func priceValue(v gson.JSON) (int, bool) {
	switch val := v.Val().(type) {
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return wholePrice(f)
	case float64:
		return wholePrice(val)
	}
	return 0, false
}

// wholePrice truncates f, rejecting values below one, NaN and anything
// beyond maxPrice.
func wholePrice(f float64) (int, bool) {
	if !(f >= 1 && f <= float64(maxPrice)) {
		return 0, false
	}
	return int(f), true
}

// maxPrice bounds numeric JSON prices so the int conversion cannot overflow.
const maxPrice = 1 << 40
