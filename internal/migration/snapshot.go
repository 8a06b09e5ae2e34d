package migration

import (
	"encoding/json"
	"fmt"

	"github.com/storeport/storeport/internal/models"
	"github.com/storeport/storeport/internal/replay"
)

// BuildSnapshot deep-clones the captured entities into an immutable
// aggregate for later replay. Every collection goes through a JSON round
// trip so no mutable reference is shared with orchestrator state; locally
// resolved filesystem paths are re-applied in an explicit post-clone patch.
// The builder runs whenever at least one product was captured, regardless
// of which export stages ran.
func BuildSnapshot(run *models.Run, cap *Captured) (*replay.Snapshot, error) {
	if len(cap.Products) == 0 {
		return nil, fmt.Errorf("no products captured")
	}

	products, err := cloneEntities("products", cap.Products)
	if err != nil {
		return nil, err
	}
	variations, err := cloneEntities("variations", cap.Variations)
	if err != nil {
		return nil, err
	}
	categories, err := cloneEntities("categories", cap.Categories)
	if err != nil {
		return nil, err
	}
	customers, err := cloneEntities("customers", cap.Customers)
	if err != nil {
		return nil, err
	}
	orders, err := cloneEntities("orders", cap.Orders)
	if err != nil {
		return nil, err
	}
	coupons, err := cloneEntities("coupons", cap.Coupons)
	if err != nil {
		return nil, err
	}
	subscriptions, err := cloneEntities("subscriptions", cap.Subscriptions)
	if err != nil {
		return nil, err
	}

	snap := &replay.Snapshot{
		StoreID:       run.StoreID,
		Timestamp:     run.Timestamp,
		Products:      products,
		Variations:    variations,
		Categories:    categories,
		Customers:     customers,
		Orders:        orders,
		Coupons:       coupons,
		Subscriptions: subscriptions,
	}

	snap.VariableProducts = groupVariations(products, variations)

	if len(cap.Settings) > 0 || len(cap.ShippingZones) > 0 || len(cap.PaymentGateways) > 0 {
		settings, err := cloneEntities("settings", cap.Settings)
		if err != nil {
			return nil, err
		}
		zones, err := cloneEntities("shipping zones", cap.ShippingZones)
		if err != nil {
			return nil, err
		}
		gateways, err := cloneEntities("payment gateways", cap.PaymentGateways)
		if err != nil {
			return nil, err
		}
		snap.Configuration = &replay.Configuration{
			Settings:        settings,
			ShippingZones:   zones,
			PaymentGateways: gateways,
		}
	}

	if len(cap.Pages) > 0 || len(cap.Posts) > 0 || len(cap.Menus) > 0 || len(cap.Widgets) > 0 {
		pages, err := cloneEntities("pages", cap.Pages)
		if err != nil {
			return nil, err
		}
		posts, err := cloneEntities("posts", cap.Posts)
		if err != nil {
			return nil, err
		}
		menus, err := cloneEntities("menus", cap.Menus)
		if err != nil {
			return nil, err
		}
		widgets, err := cloneEntities("widgets", cap.Widgets)
		if err != nil {
			return nil, err
		}
		snap.SiteContent = &replay.SiteContent{
			Pages: pages, Posts: posts, Menus: menus, Widgets: widgets,
		}
	}

	// Post-clone patch: bundle folder paths are resolved against the local
	// filesystem and must survive exactly, so they are copied across from
	// the originals index-for-index rather than trusted to the round trip.
	if len(cap.Extensions) > 0 {
		cloned, err := cloneExtensions(cap.Extensions)
		if err != nil {
			return nil, err
		}
		for i := range cloned {
			cloned[i].BundlePath = cap.Extensions[i].BundlePath
		}
		snap.Extensions = cloned
	}

	return snap, nil
}

// groupVariations derives variable-product groupings. Variations whose
// parent id is absent from the cloned product set stay in the flat list
// but are excluded from every grouping.
func groupVariations(products, variations []models.Entity) []replay.VariableProduct {
	byID := make(map[int]models.Entity, len(products))
	for _, p := range products {
		byID[entityID(p)] = p
	}

	byParent := make(map[int][]models.Entity)
	var parentOrder []int
	for _, v := range variations {
		parentID := intField(v, "parent_id")
		if _, ok := byParent[parentID]; !ok {
			parentOrder = append(parentOrder, parentID)
		}
		byParent[parentID] = append(byParent[parentID], v)
	}

	var groups []replay.VariableProduct
	for _, parentID := range parentOrder {
		parent, ok := byID[parentID]
		if !ok {
			continue
		}
		groups = append(groups, replay.VariableProduct{
			Parent:     parent,
			Variations: byParent[parentID],
		})
	}
	return groups
}

// cloneEntities round-trips a collection through JSON and checks the
// clone-count invariant.
func cloneEntities(name string, src []models.Entity) ([]models.Entity, error) {
	if len(src) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", name, err)
	}
	var out []models.Entity
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cloning %s: %w", name, err)
	}
	if len(out) != len(src) {
		return nil, fmt.Errorf("cloning %s: %d cloned, %d captured", name, len(out), len(src))
	}
	return out, nil
}

func cloneExtensions(src []models.ExtensionArtifact) ([]models.ExtensionArtifact, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("cloning extensions: %w", err)
	}
	var out []models.ExtensionArtifact
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cloning extensions: %w", err)
	}
	if len(out) != len(src) {
		return nil, fmt.Errorf("cloning extensions: %d cloned, %d captured", len(out), len(src))
	}
	return out, nil
}
