package extract

import "testing"

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestMerge(t *testing.T) {
	dst := Partial{Title: strPtr("first")}
	src := Partial{Title: strPtr("second"), Price: intPtr(100), ImageURL: strPtr("img")}

	got := Merge(dst, src)
	if *got.Title != "first" {
		t.Errorf("Title = %q, want first (never overwritten)", *got.Title)
	}
	if got.Price == nil || *got.Price != 100 {
		t.Errorf("Price = %v, want 100", got.Price)
	}
	if got.ImageURL == nil || *got.ImageURL != "img" {
		t.Errorf("ImageURL = %v", got.ImageURL)
	}

	if !Merge(Partial{}, Partial{}).Empty() {
		t.Error("merging empties should stay empty")
	}
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"NT$ 12,345", 12345, true},
		{"$12345", 12345, true},
		{"12345", 12345, true},
		{"  1,990 元 ", 1990, true},
		{"", 0, false},
		{"free", 0, false},
		{"$0", 0, false},
		{"99999999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := NormalizePrice(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizePrice(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFindPriceInText(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"Now only NT$ 2,480!", 2480, true},
		{"price $350 then $400", 350, true},
		{"$1,234,567 total", 1234567, true},
		{"NT$990", 990, true},
		{"no price here", 0, false},
		{"12,345 without marker", 0, false},
	}
	for _, tt := range tests {
		got, ok := FindPriceInText(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FindPriceInText(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestJSONLDPrice(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
		ok      bool
	}{
		{"object string price", `{"offers":{"price":"999"}}`, 999, true},
		{"object numeric price", `{"@type":"Product","offers":{"price":1490}}`, 1490, true},
		{"decimal string", `{"offers":{"price":"999.00"}}`, 999, true},
		{"decimal number", `{"offers":{"price":12.5}}`, 12, true},
		{"array with product", `[{"@type":"BreadcrumbList"},{"@type":"Product","offers":{"price":"2500"}}]`, 2500, true},
		{"array product type list", `[{"@type":["Product","Thing"],"offers":{"price":"77"}}]`, 77, true},
		{"array non product", `[{"@type":"Organization","offers":{"price":"10"}}]`, 0, false},
		{"offers array", `{"offers":[{"availability":"x"},{"price":"640"}]}`, 640, true},
		{"aggregate offer", `{"offers":{"@type":"AggregateOffer","lowPrice":"320","highPrice":"400"}}`, 320, true},
		{"graph container", `{"@context":"https://schema.org","@graph":[{"@type":"WebPage"},{"@type":"Product","offers":{"price":"88"}}]}`, 88, true},
		{"zero price", `{"offers":{"price":"0"}}`, 0, false},
		{"thousands separator", `{"offers":{"price":"1,299"}}`, 1299, true},
		{"negative string", `{"offers":{"price":"-5"}}`, 0, false},
		{"negative number", `{"offers":{"price":-5}}`, 0, false},
		{"exponent string", `{"offers":{"price":"1e3"}}`, 1000, true},
		{"fraction below one", `{"offers":{"price":"0.5"}}`, 0, false},
		{"not a number", `{"offers":{"price":"NaN"}}`, 0, false},
		{"text price", `{"offers":{"price":"call us"}}`, 0, false},
		{"no offers", `{"@type":"Product","name":"x"}`, 0, false},
		{"malformed", `{"offers":{"price":`, 0, false},
		{"empty", ``, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := JSONLDPrice(tt.payload)
			if got != tt.want || ok != tt.ok {
				t.Errorf("JSONLDPrice() = %d, %v; want %d, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"https://a.example/p/1", "/img/x.jpg", "https://a.example/img/x.jpg"},
		{"https://a.example/p/1", "//cdn.example/x.jpg", "https://cdn.example/x.jpg"},
		{"https://a.example/p/1", "https://b.example/y.jpg", "https://b.example/y.jpg"},
		{"", "/img/x.jpg", "/img/x.jpg"},
		{"https://a.example/p/1", "", ""},
	}
	for _, tt := range tests {
		if got := resolveURL(tt.base, tt.ref); got != tt.want {
			t.Errorf("resolveURL(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
}
