package migration

import (
	"testing"

	"github.com/storeport/storeport/internal/models"
)

func TestEntityName(t *testing.T) {
	tests := []struct {
		name string
		e    models.Entity
		want string
	}{
		{"plain name", models.Entity{"name": "Widget"}, "Widget"},
		{"rendered title", models.Entity{"title": map[string]interface{}{"rendered": "About Us"}}, "About Us"},
		{"slug fallback", models.Entity{"slug": "contact"}, "contact"},
		{"empty", models.Entity{}, ""},
	}
	for _, tt := range tests {
		if got := entityName(tt.e); got != tt.want {
			t.Errorf("%s: entityName = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsVariableProduct(t *testing.T) {
	if !isVariableProduct(models.Entity{"type": "variable"}) {
		t.Error("variable products should be variable")
	}
	if !isVariableProduct(models.Entity{"type": "composite"}) {
		t.Error("composite products should be variable")
	}
	if isVariableProduct(models.Entity{"type": "simple"}) {
		t.Error("simple products should not be variable")
	}
}

func TestImageURLs(t *testing.T) {
	e := models.Entity{
		"images": []interface{}{
			map[string]interface{}{"src": "https://x.test/a.jpg"},
			map[string]interface{}{"src": ""},
			map[string]interface{}{"alt": "no src"},
			map[string]interface{}{"src": "https://x.test/b.jpg"},
		},
	}
	urls := imageURLs(e)
	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2", len(urls))
	}
	if urls[0] != "https://x.test/a.jpg" || urls[1] != "https://x.test/b.jpg" {
		t.Errorf("urls = %v", urls)
	}
	if imageURLs(models.Entity{}) != nil {
		t.Error("entity without images should yield nil")
	}
}

func TestToInt(t *testing.T) {
	if toInt(float64(42)) != 42 {
		t.Error("float64 should convert")
	}
	if toInt(7) != 7 {
		t.Error("int should convert")
	}
	if toInt("42") != 0 {
		t.Error("strings are not coerced")
	}
	if toInt(nil) != 0 {
		t.Error("nil should be 0")
	}
}

func TestExtensionSlug(t *testing.T) {
	tests := []struct {
		name string
		e    models.Entity
		want string
	}{
		{"explicit slug", models.Entity{"slug": "akismet"}, "akismet"},
		{"plugin file path", models.Entity{"plugin": "woocommerce/woocommerce"}, "woocommerce"},
		{"bare plugin file", models.Entity{"plugin": "hello.php"}, "hello"},
		{"theme stylesheet", models.Entity{"stylesheet": "storefront"}, "storefront"},
		{"display name", models.Entity{"name": "My Custom Plugin"}, "my-custom-plugin"},
		{"nothing derivable", models.Entity{}, "plugin-3"},
	}
	for _, tt := range tests {
		if got := extensionSlug(tt.e, "plugin", 2); got != tt.want {
			t.Errorf("%s: extensionSlug = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestColumns_IDFirst(t *testing.T) {
	rows := []map[string]string{
		{"name": "Widget", "id": "1", "price": "9.99"},
		{"id": "2", "stock": "3"},
	}
	cols := columns(rows)
	if cols[0] != "id" {
		t.Errorf("cols[0] = %q, want id", cols[0])
	}
	want := []string{"id", "name", "price", "stock"}
	if len(cols) != len(want) {
		t.Fatalf("got %d columns, want %d", len(cols), len(want))
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("cols[%d] = %q, want %q", i, cols[i], want[i])
		}
	}
}

func TestFieldString(t *testing.T) {
	if fieldString(nil) != "" {
		t.Error("nil should render empty")
	}
	if fieldString("abc") != "abc" {
		t.Error("strings pass through")
	}
	if fieldString(true) != "true" {
		t.Error("bools render as true/false")
	}
	if fieldString(float64(5)) != "5" {
		t.Error("integral floats render without decimals")
	}
	if fieldString(float64(5.5)) != "5.5" {
		t.Error("fractional floats keep their fraction")
	}
	if got := fieldString(map[string]interface{}{"a": float64(1)}); got != `{"a":1}` {
		t.Errorf("nested structures render as JSON, got %q", got)
	}
}
