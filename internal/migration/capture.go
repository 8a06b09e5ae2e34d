package migration

import (
	"github.com/storeport/storeport/internal/design"
	"github.com/storeport/storeport/internal/media"
	"github.com/storeport/storeport/internal/models"
)

// Captured holds everything fetched from the source store, in memory.
// It is orchestrator-local and mutable; the provisioning snapshot is a
// deep clone taken from it at run end.
type Captured struct {
	Products      []models.Entity
	Variations    []models.Entity
	Categories    []models.Entity
	Customers     []models.Entity
	Orders        []models.Entity
	Coupons       []models.Entity
	Subscriptions []models.Entity

	Settings        []models.Entity
	ShippingZones   []models.Entity
	PaymentGateways []models.Entity

	Pages        []models.Entity
	Posts        []models.Entity
	MediaLibrary []models.Entity
	Menus        []models.Entity
	Widgets      []models.Entity

	Footprints []models.Footprint
	Extensions []models.ExtensionArtifact

	// ProductImages maps product id to locally resolved image files.
	ProductImages map[int][]*media.Reference

	DesignManifest *design.Manifest
	CrawlSummary   *models.CrawlSummary
}

// NewCaptured creates an empty capture state.
func NewCaptured() *Captured {
	return &Captured{ProductImages: make(map[int][]*media.Reference)}
}
