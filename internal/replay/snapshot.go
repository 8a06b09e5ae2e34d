// Package replay holds the provisioning snapshot produced at run end and
// the driver that feeds it into a target-store provisioner.
package replay

import "github.com/storeport/storeport/internal/models"

// VariableProduct groups a parent product with its variations. Groupings
// are derived at snapshot time; a group only exists when its parent id is
// present in the cloned product set.
type VariableProduct struct {
	Parent     models.Entity   `json:"parent"`
	Variations []models.Entity `json:"variations"`
}

// Configuration is the captured store configuration.
type Configuration struct {
	Settings        []models.Entity `json:"settings"`
	ShippingZones   []models.Entity `json:"shipping_zones"`
	PaymentGateways []models.Entity `json:"payment_gateways"`
}

// SiteContent is the captured WordPress-side content.
type SiteContent struct {
	Pages   []models.Entity `json:"pages"`
	Posts   []models.Entity `json:"posts"`
	Menus   []models.Entity `json:"menus"`
	Widgets []models.Entity `json:"widgets"`
}

// Snapshot is the immutable aggregate of everything captured during a run,
// deep-cloned away from orchestrator-local state so it can be replayed
// later without re-scraping. It is consumed only by the Driver.
type Snapshot struct {
	StoreID   string `json:"store_id"`
	Timestamp string `json:"timestamp"`

	Products         []models.Entity            `json:"products"`
	Variations       []models.Entity            `json:"variations"`
	VariableProducts []VariableProduct          `json:"variable_products"`
	Configuration    *Configuration             `json:"configuration,omitempty"`
	Extensions       []models.ExtensionArtifact `json:"extensions,omitempty"`
	Customers        []models.Entity            `json:"customers"`
	Orders           []models.Entity            `json:"orders"`
	Coupons          []models.Entity            `json:"coupons"`
	Subscriptions    []models.Entity            `json:"subscriptions"`
	SiteContent      *SiteContent               `json:"site_content,omitempty"`
	Categories       []models.Entity            `json:"categories"`
}

// Summary returns entity counts for API responses and logs.
func (s *Snapshot) Summary() map[string]int {
	return map[string]int{
		"products":          len(s.Products),
		"variations":        len(s.Variations),
		"variable_products": len(s.VariableProducts),
		"extensions":        len(s.Extensions),
		"customers":         len(s.Customers),
		"orders":            len(s.Orders),
		"coupons":           len(s.Coupons),
		"subscriptions":     len(s.Subscriptions),
		"categories":        len(s.Categories),
	}
}
