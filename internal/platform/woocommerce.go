package platform

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/storeport/storeport/internal/config"
	"github.com/storeport/storeport/internal/models"
)

const (
	wcPrefix = "/wp-json/wc/v3/"
	wpPrefix = "/wp-json/wp/v2/"
)

// WooSource fetches from a WooCommerce store: the store catalog API with
// consumer key/secret, plus the WordPress REST API with an application
// password for content, media and extension introspection.
type WooSource struct {
	cfg   *config.SourceConfig
	store *Client
	wp    *Client
}

// NewWooSource creates a WooSource from a source config.
func NewWooSource(src *config.SourceConfig, rc config.RetryConfig) *WooSource {
	store := NewClient(src, rc)
	return &WooSource{
		cfg:   src,
		store: store,
		wp:    store.WithBasicAuth(src.WPUsername, src.WPAppPassword),
	}
}

func (s *WooSource) FetchProducts(ctx context.Context, filters config.FilterConfig) ([]models.Entity, error) {
	params := url.Values{"status": {"any"}}
	if len(filters.Categories) > 0 {
		params.Set("category", strings.Join(filters.Categories, ","))
	}
	if len(filters.Tags) > 0 {
		params.Set("tag", strings.Join(filters.Tags, ","))
	}
	return s.store.GetAll(ctx, wcPrefix+"products", params)
}

func (s *WooSource) FetchProductsBasic(ctx context.Context) ([]models.Entity, error) {
	return s.store.GetAll(ctx, wcPrefix+"products", nil)
}

func (s *WooSource) FetchVariations(ctx context.Context, parentIDs []int) ([]models.Entity, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(parentIDs))
	for i, id := range parentIDs {
		ids[i] = strconv.Itoa(id)
	}
	params := url.Values{"parent": {strings.Join(ids, ",")}}
	return s.store.GetAll(ctx, wcPrefix+"products/variations", params)
}

func (s *WooSource) FetchCategories(ctx context.Context) ([]models.Entity, error) {
	return s.storeGetAll(ctx, wcPrefix+"products/categories")
}

func (s *WooSource) FetchCustomers(ctx context.Context) ([]models.Entity, error) {
	return s.storeGetAll(ctx, wcPrefix+"customers")
}

func (s *WooSource) FetchOrders(ctx context.Context) ([]models.Entity, error) {
	return s.storeGetAll(ctx, wcPrefix+"orders")
}

func (s *WooSource) FetchCoupons(ctx context.Context) ([]models.Entity, error) {
	return s.storeGetAll(ctx, wcPrefix+"coupons")
}

func (s *WooSource) FetchSubscriptions(ctx context.Context) ([]models.Entity, error) {
	// WooCommerce Subscriptions exposes its own v1 namespace.
	return s.storeGetAll(ctx, "/wp-json/wc/v1/subscriptions")
}

func (s *WooSource) FetchSettings(ctx context.Context) ([]models.Entity, error) {
	groups, err := s.storeGetAll(ctx, wcPrefix+"settings")
	if err != nil {
		return nil, err
	}
	// Flatten: one entity per setting, fetched per group.
	var all []models.Entity
	for _, g := range groups {
		id, _ := g["id"].(string)
		if id == "" {
			continue
		}
		settings, err := s.store.GetAll(ctx, wcPrefix+"settings/"+id, nil)
		if err != nil {
			return nil, err
		}
		all = append(all, settings...)
	}
	return all, nil
}

func (s *WooSource) FetchShippingZones(ctx context.Context) ([]models.Entity, error) {
	return s.storeGetAll(ctx, wcPrefix+"shipping/zones")
}

func (s *WooSource) FetchPaymentGateways(ctx context.Context) ([]models.Entity, error) {
	return s.storeGetAll(ctx, wcPrefix+"payment_gateways")
}

func (s *WooSource) FetchPages(ctx context.Context) ([]models.Entity, error) {
	return s.wpGetAll(ctx, wpPrefix+"pages")
}

func (s *WooSource) FetchPosts(ctx context.Context) ([]models.Entity, error) {
	return s.wpGetAll(ctx, wpPrefix+"posts")
}

func (s *WooSource) FetchMediaLibrary(ctx context.Context) ([]models.Entity, error) {
	return s.wpGetAll(ctx, wpPrefix+"media")
}

func (s *WooSource) FetchMenus(ctx context.Context) ([]models.Entity, error) {
	return s.wpGetAll(ctx, wpPrefix+"menus")
}

func (s *WooSource) FetchWidgets(ctx context.Context) ([]models.Entity, error) {
	return s.wpGetAll(ctx, wpPrefix+"widgets")
}

func (s *WooSource) FetchPlugins(ctx context.Context) ([]models.Entity, error) {
	return s.wpGetAll(ctx, wpPrefix+"plugins")
}

func (s *WooSource) FetchThemes(ctx context.Context) ([]models.Entity, error) {
	return s.wpGetAll(ctx, wpPrefix+"themes")
}

func (s *WooSource) CanIntrospectExtensions() bool {
	return s.cfg.HasWPCredentials()
}

// storeGetAll guards store catalog API calls behind the consumer key/secret.
func (s *WooSource) storeGetAll(ctx context.Context, path string) ([]models.Entity, error) {
	if !s.cfg.HasWooCredentials() {
		return nil, ErrMissingCredentials
	}
	return s.store.GetAll(ctx, path, nil)
}

// wpGetAll guards WordPress REST calls behind the application password.
func (s *WooSource) wpGetAll(ctx context.Context, path string) ([]models.Entity, error) {
	if !s.cfg.HasWPCredentials() {
		return nil, ErrMissingCredentials
	}
	return s.wp.GetAll(ctx, path, nil)
}
