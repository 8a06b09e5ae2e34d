package platform

import (
	"context"
	"errors"

	"github.com/storeport/storeport/internal/config"
	"github.com/storeport/storeport/internal/models"
)

// ErrMissingCredentials is returned by fetches whose capability requires
// credentials that were left blank. The orchestrator skips the stage and
// records a note for the report; it is never treated as a failure.
var ErrMissingCredentials = errors.New("missing credentials")

// Source defines the fetch operations available on a source store.
// Implementations: WooCommerce (store catalog API + WordPress REST) and
// the storefront API (admin token auth).
type Source interface {
	// FetchProducts returns the primary catalog, honoring category/tag
	// filters. An empty result after FetchProductsBasic fallback is the
	// only run-fatal condition.
	FetchProducts(ctx context.Context, filters config.FilterConfig) ([]models.Entity, error)

	// FetchProductsBasic is the unfiltered fallback catalog fetch.
	FetchProductsBasic(ctx context.Context) ([]models.Entity, error)

	// FetchVariations returns child variants for the given parent ids in
	// a single batched call.
	FetchVariations(ctx context.Context, parentIDs []int) ([]models.Entity, error)

	FetchCategories(ctx context.Context) ([]models.Entity, error)
	FetchCustomers(ctx context.Context) ([]models.Entity, error)
	FetchOrders(ctx context.Context) ([]models.Entity, error)
	FetchCoupons(ctx context.Context) ([]models.Entity, error)
	FetchSubscriptions(ctx context.Context) ([]models.Entity, error)

	FetchSettings(ctx context.Context) ([]models.Entity, error)
	FetchShippingZones(ctx context.Context) ([]models.Entity, error)
	FetchPaymentGateways(ctx context.Context) ([]models.Entity, error)

	// WordPress-side content. Storefront-API sources return
	// ErrMissingCredentials for capabilities they do not have.
	FetchPages(ctx context.Context) ([]models.Entity, error)
	FetchPosts(ctx context.Context) ([]models.Entity, error)
	FetchMediaLibrary(ctx context.Context) ([]models.Entity, error)
	FetchMenus(ctx context.Context) ([]models.Entity, error)
	FetchWidgets(ctx context.Context) ([]models.Entity, error)

	// FetchPlugins and FetchThemes are the authenticated introspection
	// calls. When available they make public footprint detection redundant.
	FetchPlugins(ctx context.Context) ([]models.Entity, error)
	FetchThemes(ctx context.Context) ([]models.Entity, error)

	// CanIntrospectExtensions reports whether authenticated plugin/theme
	// introspection is available with the configured credentials.
	CanIntrospectExtensions() bool
}

// NewSource creates the appropriate Source implementation for a config.
func NewSource(src *config.SourceConfig, rc config.RetryConfig) Source {
	switch src.Platform {
	case "storefront":
		return NewStorefrontSource(src, rc)
	default:
		return NewWooSource(src, rc)
	}
}
