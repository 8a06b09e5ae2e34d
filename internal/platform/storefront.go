package platform

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/storeport/storeport/internal/config"
	"github.com/storeport/storeport/internal/models"
)

const sfPrefix = "/api/admin/v1/"

// StorefrontSource fetches from a headless storefront API using an admin
// bearer token. It has no WordPress side: content, media library and
// extension introspection report missing credentials and are skipped.
type StorefrontSource struct {
	cfg    *config.SourceConfig
	client *Client
}

// NewStorefrontSource creates a StorefrontSource from a source config.
func NewStorefrontSource(src *config.SourceConfig, rc config.RetryConfig) *StorefrontSource {
	return &StorefrontSource{cfg: src, client: NewClient(src, rc)}
}

func (s *StorefrontSource) FetchProducts(ctx context.Context, filters config.FilterConfig) ([]models.Entity, error) {
	if s.cfg.AdminToken == "" {
		return nil, ErrMissingCredentials
	}
	params := url.Values{}
	if len(filters.Categories) > 0 {
		params.Set("categories", strings.Join(filters.Categories, ","))
	}
	if len(filters.Tags) > 0 {
		params.Set("tags", strings.Join(filters.Tags, ","))
	}
	return s.client.GetAll(ctx, sfPrefix+"products", params)
}

func (s *StorefrontSource) FetchProductsBasic(ctx context.Context) ([]models.Entity, error) {
	if s.cfg.AdminToken == "" {
		return nil, ErrMissingCredentials
	}
	return s.client.GetAll(ctx, sfPrefix+"products", nil)
}

func (s *StorefrontSource) FetchVariations(ctx context.Context, parentIDs []int) ([]models.Entity, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(parentIDs))
	for i, id := range parentIDs {
		ids[i] = strconv.Itoa(id)
	}
	params := url.Values{"parent": {strings.Join(ids, ",")}}
	return s.client.GetAll(ctx, sfPrefix+"variations", params)
}

func (s *StorefrontSource) FetchCategories(ctx context.Context) ([]models.Entity, error) {
	return s.client.GetAll(ctx, sfPrefix+"categories", nil)
}

func (s *StorefrontSource) FetchCustomers(ctx context.Context) ([]models.Entity, error) {
	return s.client.GetAll(ctx, sfPrefix+"customers", nil)
}

func (s *StorefrontSource) FetchOrders(ctx context.Context) ([]models.Entity, error) {
	return s.client.GetAll(ctx, sfPrefix+"orders", nil)
}

func (s *StorefrontSource) FetchCoupons(ctx context.Context) ([]models.Entity, error) {
	return s.client.GetAll(ctx, sfPrefix+"coupons", nil)
}

func (s *StorefrontSource) FetchSubscriptions(ctx context.Context) ([]models.Entity, error) {
	return s.client.GetAll(ctx, sfPrefix+"subscriptions", nil)
}

func (s *StorefrontSource) FetchSettings(ctx context.Context) ([]models.Entity, error) {
	return s.client.GetAll(ctx, sfPrefix+"settings", nil)
}

func (s *StorefrontSource) FetchShippingZones(ctx context.Context) ([]models.Entity, error) {
	return s.client.GetAll(ctx, sfPrefix+"shipping-zones", nil)
}

func (s *StorefrontSource) FetchPaymentGateways(ctx context.Context) ([]models.Entity, error) {
	return s.client.GetAll(ctx, sfPrefix+"payment-gateways", nil)
}

func (s *StorefrontSource) FetchPages(ctx context.Context) ([]models.Entity, error) {
	return nil, ErrMissingCredentials
}

func (s *StorefrontSource) FetchPosts(ctx context.Context) ([]models.Entity, error) {
	return nil, ErrMissingCredentials
}

func (s *StorefrontSource) FetchMediaLibrary(ctx context.Context) ([]models.Entity, error) {
	return nil, ErrMissingCredentials
}

func (s *StorefrontSource) FetchMenus(ctx context.Context) ([]models.Entity, error) {
	return nil, ErrMissingCredentials
}

func (s *StorefrontSource) FetchWidgets(ctx context.Context) ([]models.Entity, error) {
	return nil, ErrMissingCredentials
}

func (s *StorefrontSource) FetchPlugins(ctx context.Context) ([]models.Entity, error) {
	return nil, ErrMissingCredentials
}

func (s *StorefrontSource) FetchThemes(ctx context.Context) ([]models.Entity, error) {
	return nil, ErrMissingCredentials
}

func (s *StorefrontSource) CanIntrospectExtensions() bool {
	return false
}
