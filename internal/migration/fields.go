package migration

import (
	"encoding/json"

	"github.com/storeport/storeport/internal/models"
)

// entityID extracts the numeric ID from an Entity.
func entityID(e models.Entity) int {
	return toInt(e["id"])
}

// entityName returns the name (or title/slug) of an Entity.
func entityName(e models.Entity) string {
	if n, ok := e["name"].(string); ok && n != "" {
		return n
	}
	if t, ok := e["title"].(map[string]interface{}); ok {
		if r, ok := t["rendered"].(string); ok {
			return r
		}
	}
	if s, ok := e["slug"].(string); ok {
		return s
	}
	return ""
}

// stringField safely extracts a string field, returning "" if nil.
func stringField(e models.Entity, field string) string {
	if v, ok := e[field].(string); ok {
		return v
	}
	return ""
}

// intField safely extracts an int field from an entity.
func intField(e models.Entity, field string) int {
	return toInt(e[field])
}

// renderedField navigates {field}.rendered, the WordPress REST convention
// for HTML content.
func renderedField(e models.Entity, field string) string {
	obj, ok := e[field].(map[string]interface{})
	if !ok {
		return ""
	}
	if r, ok := obj["rendered"].(string); ok {
		return r
	}
	return ""
}

// productType returns the catalog item type ("simple", "variable", ...).
func productType(e models.Entity) string {
	return stringField(e, "type")
}

// isVariableProduct reports whether a catalog item has child variants.
func isVariableProduct(e models.Entity) bool {
	t := productType(e)
	return t == "variable" || t == "composite"
}

// imageURLs returns the source URLs of a product's images.
func imageURLs(e models.Entity) []string {
	images, ok := e["images"].([]interface{})
	if !ok {
		return nil
	}
	var urls []string
	for _, img := range images {
		if im, ok := img.(map[string]interface{}); ok {
			if src, ok := im["src"].(string); ok && src != "" {
				urls = append(urls, src)
			}
		}
	}
	return urls
}

// toInt converts various numeric types to int.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}
