package replay

import (
	"context"
	"fmt"

	"github.com/storeport/storeport/internal/models"
)

// Credentials authenticate against the target store being provisioned.
type Credentials struct {
	BaseURL        string `json:"base_url"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	WPUsername     string `json:"wp_username"`
	WPAppPassword  string `json:"wp_app_password"`
}

// ProvisionRequest carries the snapshot collections into a provisioner.
type ProvisionRequest struct {
	Products         []models.Entity
	VariableProducts []VariableProduct
	Variations       []models.Entity
	Configuration    *Configuration
	Customers        []models.Entity
	Coupons          []models.Entity
	Orders           []models.Entity
	Subscriptions    []models.Entity
	SiteContent      *SiteContent
	Categories       []models.Entity
}

// Provisioner is the target-store provisioning protocol. The protocol
// itself lives outside this module; only the call contract is fixed here.
type Provisioner interface {
	Provision(ctx context.Context, creds Credentials, req ProvisionRequest, progress func(string)) error
	UploadPlugins(ctx context.Context, creds Credentials, artifacts []models.ExtensionArtifact, progress func(string)) error
	UploadThemes(ctx context.Context, creds Credentials, artifacts []models.ExtensionArtifact, progress func(string)) error
}

// Driver feeds a snapshot into a provisioner. It reads only the snapshot,
// never orchestrator-internal state.
type Driver struct {
	prov Provisioner
}

// NewDriver creates a Driver around a provisioner.
func NewDriver(p Provisioner) *Driver {
	return &Driver{prov: p}
}

// Replay provisions a target store from a snapshot. Captured plugin and
// theme bundles are uploaded before product provisioning when present.
func (d *Driver) Replay(ctx context.Context, creds Credentials, snap *Snapshot, progress func(string)) error {
	if snap == nil || len(snap.Products) == 0 {
		return fmt.Errorf("snapshot has no products to replay")
	}

	var plugins, themes []models.ExtensionArtifact
	for _, art := range snap.Extensions {
		switch art.Type {
		case "theme":
			themes = append(themes, art)
		default:
			plugins = append(plugins, art)
		}
	}

	if len(plugins) > 0 {
		progress(fmt.Sprintf("Uploading %d plugin bundles...", len(plugins)))
		if err := d.prov.UploadPlugins(ctx, creds, plugins, progress); err != nil {
			return fmt.Errorf("uploading plugins: %w", err)
		}
	}
	if len(themes) > 0 {
		progress(fmt.Sprintf("Uploading %d theme bundles...", len(themes)))
		if err := d.prov.UploadThemes(ctx, creds, themes, progress); err != nil {
			return fmt.Errorf("uploading themes: %w", err)
		}
	}

	progress(fmt.Sprintf("Provisioning %d products (%d variable, %d variations)...",
		len(snap.Products), len(snap.VariableProducts), len(snap.Variations)))
	req := ProvisionRequest{
		Products:         snap.Products,
		VariableProducts: snap.VariableProducts,
		Variations:       snap.Variations,
		Configuration:    snap.Configuration,
		Customers:        snap.Customers,
		Coupons:          snap.Coupons,
		Orders:           snap.Orders,
		Subscriptions:    snap.Subscriptions,
		SiteContent:      snap.SiteContent,
		Categories:       snap.Categories,
	}
	if err := d.prov.Provision(ctx, creds, req, progress); err != nil {
		return fmt.Errorf("provisioning: %w", err)
	}
	progress("Replay complete")
	return nil
}
