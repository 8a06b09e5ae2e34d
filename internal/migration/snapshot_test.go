package migration

import (
	"testing"

	"github.com/storeport/storeport/internal/models"
)

func TestBuildSnapshot_NoProducts(t *testing.T) {
	run := models.NewRun("https://shop.example.com", "/tmp/out")
	if _, err := BuildSnapshot(run, NewCaptured()); err == nil {
		t.Fatal("BuildSnapshot should fail without products")
	}
}

func TestBuildSnapshot_CloneIndependence(t *testing.T) {
	run := models.NewRun("https://shop.example.com", "/tmp/out")
	cap := NewCaptured()
	cap.Products = []models.Entity{
		{"id": 1, "name": "Widget", "meta": map[string]interface{}{"color": "red"}},
	}

	snap, err := BuildSnapshot(run, cap)
	if err != nil {
		t.Fatalf("BuildSnapshot returned error: %v", err)
	}

	// Mutating the captured entities must not reach the snapshot.
	cap.Products[0]["name"] = "Renamed"
	cap.Products[0]["meta"].(map[string]interface{})["color"] = "blue"

	if snap.Products[0]["name"] != "Widget" {
		t.Errorf("snapshot name = %v, want Widget", snap.Products[0]["name"])
	}
	meta := snap.Products[0]["meta"].(map[string]interface{})
	if meta["color"] != "red" {
		t.Errorf("snapshot nested field = %v, want red: clone must be deep", meta["color"])
	}
}

func TestBuildSnapshot_GroupsVariations(t *testing.T) {
	run := models.NewRun("https://shop.example.com", "/tmp/out")
	cap := NewCaptured()
	cap.Products = []models.Entity{
		{"id": 1, "name": "Shirt", "type": "variable"},
		{"id": 2, "name": "Mug", "type": "simple"},
	}
	cap.Variations = []models.Entity{
		{"id": 11, "parent_id": 1, "sku": "SHIRT-S"},
		{"id": 12, "parent_id": 1, "sku": "SHIRT-M"},
		{"id": 99, "parent_id": 42, "sku": "ORPHAN"},
	}

	snap, err := BuildSnapshot(run, cap)
	if err != nil {
		t.Fatalf("BuildSnapshot returned error: %v", err)
	}

	if len(snap.VariableProducts) != 1 {
		t.Fatalf("got %d variable groups, want 1: orphans must not form groups", len(snap.VariableProducts))
	}
	group := snap.VariableProducts[0]
	if entityID(group.Parent) != 1 {
		t.Errorf("group parent id = %d, want 1", entityID(group.Parent))
	}
	if len(group.Variations) != 2 {
		t.Errorf("group has %d variations, want 2", len(group.Variations))
	}
	// The orphan stays in the flat list.
	if len(snap.Variations) != 3 {
		t.Errorf("flat variation list has %d items, want 3", len(snap.Variations))
	}
}

func TestBuildSnapshot_ConfigurationOmittedWhenEmpty(t *testing.T) {
	run := models.NewRun("https://shop.example.com", "/tmp/out")
	cap := NewCaptured()
	cap.Products = []models.Entity{{"id": 1, "name": "Widget"}}

	snap, err := BuildSnapshot(run, cap)
	if err != nil {
		t.Fatalf("BuildSnapshot returned error: %v", err)
	}
	if snap.Configuration != nil {
		t.Error("Configuration should be nil when nothing was captured")
	}
	if snap.SiteContent != nil {
		t.Error("SiteContent should be nil when nothing was captured")
	}

	cap.Settings = []models.Entity{{"id": "woocommerce_currency", "value": "EUR"}}
	snap, err = BuildSnapshot(run, cap)
	if err != nil {
		t.Fatalf("BuildSnapshot returned error: %v", err)
	}
	if snap.Configuration == nil || len(snap.Configuration.Settings) != 1 {
		t.Error("Configuration should carry captured settings")
	}
}

func TestBuildSnapshot_ExtensionBundlePaths(t *testing.T) {
	run := models.NewRun("https://shop.example.com", "/tmp/out")
	cap := NewCaptured()
	cap.Products = []models.Entity{{"id": 1}}
	cap.Extensions = []models.ExtensionArtifact{
		{Slug: "woocommerce", Type: "plugin", BundlePath: "/out/shop/plugins/woocommerce"},
		{Slug: "storefront", Type: "theme", BundlePath: "/out/shop/themes/storefront"},
	}

	snap, err := BuildSnapshot(run, cap)
	if err != nil {
		t.Fatalf("BuildSnapshot returned error: %v", err)
	}
	if len(snap.Extensions) != 2 {
		t.Fatalf("got %d extensions, want 2", len(snap.Extensions))
	}
	for i, art := range snap.Extensions {
		if art.BundlePath != cap.Extensions[i].BundlePath {
			t.Errorf("extension %d BundlePath = %q, want %q", i, art.BundlePath, cap.Extensions[i].BundlePath)
		}
	}
}

func TestSnapshot_Summary(t *testing.T) {
	run := models.NewRun("https://shop.example.com", "/tmp/out")
	cap := NewCaptured()
	cap.Products = []models.Entity{{"id": 1}, {"id": 2}}
	cap.Categories = []models.Entity{{"id": 5}}

	snap, err := BuildSnapshot(run, cap)
	if err != nil {
		t.Fatalf("BuildSnapshot returned error: %v", err)
	}
	summary := snap.Summary()
	if summary["products"] != 2 {
		t.Errorf("summary[products] = %d, want 2", summary["products"])
	}
	if summary["categories"] != 1 {
		t.Errorf("summary[categories] = %d, want 1", summary["categories"])
	}
}
