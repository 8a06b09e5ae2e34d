package migration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/storeport/storeport/internal/config"
	"github.com/storeport/storeport/internal/directory"
	"github.com/storeport/storeport/internal/models"
	"github.com/storeport/storeport/internal/platform"
)

// fakeSource is a scriptable platform.Source for orchestrator tests.
type fakeSource struct {
	products    []models.Entity
	basic       []models.Entity
	variations  []models.Entity
	categories  []models.Entity
	plugins     []models.Entity
	themes      []models.Entity
	productsErr error
	pluginsErr  error
	wpErr       error
	storeErr    error
	introspect  bool
}

func (f *fakeSource) FetchProducts(ctx context.Context, filters config.FilterConfig) ([]models.Entity, error) {
	return f.products, f.productsErr
}
func (f *fakeSource) FetchProductsBasic(ctx context.Context) ([]models.Entity, error) {
	return f.basic, nil
}
func (f *fakeSource) FetchVariations(ctx context.Context, parentIDs []int) ([]models.Entity, error) {
	return f.variations, nil
}
func (f *fakeSource) FetchCategories(ctx context.Context) ([]models.Entity, error) {
	return f.categories, f.storeErr
}
func (f *fakeSource) FetchCustomers(ctx context.Context) ([]models.Entity, error) {
	return nil, f.storeErr
}
func (f *fakeSource) FetchOrders(ctx context.Context) ([]models.Entity, error) {
	return nil, f.storeErr
}
func (f *fakeSource) FetchCoupons(ctx context.Context) ([]models.Entity, error) {
	return nil, f.storeErr
}
func (f *fakeSource) FetchSubscriptions(ctx context.Context) ([]models.Entity, error) {
	return nil, f.storeErr
}
func (f *fakeSource) FetchSettings(ctx context.Context) ([]models.Entity, error) {
	return nil, f.storeErr
}
func (f *fakeSource) FetchShippingZones(ctx context.Context) ([]models.Entity, error) {
	return nil, f.storeErr
}
func (f *fakeSource) FetchPaymentGateways(ctx context.Context) ([]models.Entity, error) {
	return nil, f.storeErr
}
func (f *fakeSource) FetchPages(ctx context.Context) ([]models.Entity, error)        { return nil, f.wpErr }
func (f *fakeSource) FetchPosts(ctx context.Context) ([]models.Entity, error)        { return nil, f.wpErr }
func (f *fakeSource) FetchMediaLibrary(ctx context.Context) ([]models.Entity, error) { return nil, f.wpErr }
func (f *fakeSource) FetchMenus(ctx context.Context) ([]models.Entity, error)        { return nil, f.wpErr }
func (f *fakeSource) FetchWidgets(ctx context.Context) ([]models.Entity, error)      { return nil, f.wpErr }
func (f *fakeSource) FetchPlugins(ctx context.Context) ([]models.Entity, error) {
	return f.plugins, f.pluginsErr
}
func (f *fakeSource) FetchThemes(ctx context.Context) ([]models.Entity, error) {
	return f.themes, f.pluginsErr
}
func (f *fakeSource) CanIntrospectExtensions() bool { return f.introspect }

func testConfig(t *testing.T, baseURL string) *config.Config {
	cfg := &config.Config{
		OutputRoot: t.TempDir(),
		Source:     config.SourceConfig{Platform: "woocommerce", BaseURL: baseURL},
		Directory:  config.DirectoryConfig{LookupDelay: time.Millisecond},
	}
	cfg.ApplyDefaults()
	return cfg
}

func runWith(t *testing.T, cfg *config.Config, src *fakeSource) (*Result, []string, error) {
	var logs []string
	runner := &Runner{
		Config:    cfg,
		Source:    src,
		Directory: directory.NewClient(time.Millisecond, func(string) {}),
	}
	result, err := runner.Run(context.Background(), func(s string) { logs = append(logs, s) })
	return result, logs, err
}

func countLogs(logs []string, substr string) int {
	n := 0
	for _, l := range logs {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

func TestRun_EmptyCatalogIsFatal(t *testing.T) {
	cfg := testConfig(t, "https://empty.example.com")
	cfg.Exports = config.ExportFlags{Products: true}

	_, logs, err := runWith(t, cfg, &fakeSource{})
	if !errors.Is(err, ErrNoProducts) {
		t.Fatalf("err = %v, want ErrNoProducts", err)
	}
	if got := countLogs(logs, "no products found"); got != 1 {
		t.Errorf("%q logged %d times, want exactly 1", "no products found", got)
	}
}

func TestRun_BasicFallbackRescuesCatalog(t *testing.T) {
	cfg := testConfig(t, "https://shop.example.com")
	cfg.Exports = config.ExportFlags{Products: true}

	src := &fakeSource{
		productsErr: fmt.Errorf("rest_forbidden"),
		basic:       []models.Entity{{"id": 1, "name": "Widget"}},
	}
	result, logs, err := runWith(t, cfg, src)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Snapshot == nil || len(result.Snapshot.Products) != 1 {
		t.Fatal("snapshot should hold the basic-fetch product")
	}
	if countLogs(logs, "trying basic fetch") != 1 {
		t.Error("expected a fallback warning")
	}
}

func TestRun_MissingCredentialsSkipsStage(t *testing.T) {
	cfg := testConfig(t, "https://shop.example.com")
	cfg.Exports = config.ExportFlags{Products: true, Plugins: true, Pages: true}

	src := &fakeSource{
		products:   []models.Entity{{"id": 1, "name": "Widget"}},
		pluginsErr: platform.ErrMissingCredentials,
		wpErr:      platform.ErrMissingCredentials,
	}
	result, _, err := runWith(t, cfg, src)
	if err != nil {
		t.Fatalf("missing credentials must not fail the run: %v", err)
	}

	if len(result.MissingCredentials) != 2 {
		t.Fatalf("got %d credential notes, want 2: %v", len(result.MissingCredentials), result.MissingCredentials)
	}
	joined := strings.Join(result.MissingCredentials, "\n")
	if !strings.Contains(joined, "plugin and theme inventory") {
		t.Errorf("notes should name the inventory stage: %v", result.MissingCredentials)
	}
	if !strings.Contains(joined, "pages") {
		t.Errorf("notes should name the pages stage: %v", result.MissingCredentials)
	}

	// The skipped inventory stage must not leave a plugins folder behind.
	storeDir := filepath.Join(cfg.OutputRoot, result.Run.StoreID)
	if _, err := os.Stat(filepath.Join(storeDir, "plugins")); !os.IsNotExist(err) {
		t.Error("plugins/ should not exist when the inventory stage was skipped")
	}

	for _, out := range result.Outcomes {
		if out.Name == "plugin and theme inventory" && out.Status != "skipped" {
			t.Errorf("inventory outcome = %q, want skipped", out.Status)
		}
	}
}

func TestRun_MissingStoreCredentialsSkipStoreStages(t *testing.T) {
	cfg := testConfig(t, "https://shop.example.com")
	cfg.Exports = config.ExportFlags{
		Products: true, Customers: true, Orders: true,
		Shipping: true, Gateways: true,
	}

	src := &fakeSource{
		products: []models.Entity{{"id": 1, "name": "Widget"}},
		storeErr: platform.ErrMissingCredentials,
	}
	result, _, err := runWith(t, cfg, src)
	if err != nil {
		t.Fatalf("missing credentials must not fail the run: %v", err)
	}

	// categories always runs; customers, orders and store configuration
	// were enabled explicitly. All four must skip with a note.
	want := []string{"categories", "customers", "orders", "store configuration"}
	if len(result.MissingCredentials) != len(want) {
		t.Fatalf("got %d credential notes, want %d: %v",
			len(result.MissingCredentials), len(want), result.MissingCredentials)
	}
	joined := strings.Join(result.MissingCredentials, "\n")
	for _, name := range want {
		if !strings.Contains(joined, name+" skipped") {
			t.Errorf("notes should name the %s stage: %v", name, result.MissingCredentials)
		}
	}
	for _, out := range result.Outcomes {
		for _, name := range want {
			if out.Name == name && out.Status != "skipped" {
				t.Errorf("%s outcome = %q, want skipped", name, out.Status)
			}
		}
	}
}

func TestRun_FootprintsForcedOffWithIntrospection(t *testing.T) {
	// Local directory endpoint so enrichment never leaves the test.
	dirTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"Plugin not found."}`)
	}))
	defer dirTS.Close()

	cfg := testConfig(t, "https://shop.example.com")
	cfg.Exports = config.ExportFlags{Products: true, Plugins: true, Footprints: true}

	src := &fakeSource{
		products:   []models.Entity{{"id": 1, "name": "Widget"}},
		plugins:    []models.Entity{{"name": "WooCommerce", "plugin": "woocommerce/woocommerce", "version": "8.5"}},
		introspect: true,
	}

	var logs []string
	runner := &Runner{
		Config: cfg,
		Source: src,
		Directory: directory.NewClient(time.Millisecond, func(string) {}).
			WithEndpoints(dirTS.URL+"/plugins", dirTS.URL+"/themes"),
	}
	result, err := runner.Run(context.Background(), func(s string) { logs = append(logs, s) })
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if countLogs(logs, "Skipping public footprint detection") != 1 {
		t.Error("expected the forced-off log line")
	}
	for _, out := range result.Outcomes {
		if out.Name == "public extension footprints" && out.Status != "disabled" {
			t.Errorf("footprint outcome = %q, want disabled", out.Status)
		}
	}

	// The inventory wrote the bundle and footprint for enrichment.
	storeDir := filepath.Join(cfg.OutputRoot, result.Run.StoreID)
	optionsPath := filepath.Join(storeDir, "plugins", "woocommerce", "options.json")
	if _, err := os.Stat(optionsPath); err != nil {
		t.Errorf("plugin bundle missing: %v", err)
	}
}

func TestRun_FullPipelineWritesDeliverables(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head></head><body>shop</body></html>`)
	}))
	defer ts.Close()

	cfg := testConfig(t, ts.URL)
	cfg.Exports = config.ExportFlags{
		Products: true, Variations: true, Design: true,
		CSV: true, JSONL: true,
	}

	src := &fakeSource{
		products: []models.Entity{
			{"id": 1, "name": "Shirt", "type": "variable"},
			{"id": 2, "name": "Mug", "type": "simple"},
		},
		variations: []models.Entity{
			{"id": 11, "parent_id": 1, "sku": "SHIRT-S"},
		},
		categories: []models.Entity{{"id": 5, "name": "Apparel"}},
	}
	result, logs, err := runWith(t, cfg, src)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	storeDir := filepath.Join(cfg.OutputRoot, result.Run.StoreID)
	prefix := result.Run.FilePrefix()
	for _, file := range []string{
		"manual-migration-report.md",
		prefix + "_products.csv",
		prefix + "_products.jsonl",
		prefix + "_variations.csv",
		prefix + "_categories.csv",
		filepath.Join("design", "manifest.json"),
	} {
		if _, err := os.Stat(filepath.Join(storeDir, file)); err != nil {
			t.Errorf("deliverable missing: %v", err)
		}
	}

	if result.ArchivePath == "" {
		t.Fatal("ArchivePath should be set")
	}
	if _, err := os.Stat(result.ArchivePath); err != nil {
		t.Errorf("archive missing: %v", err)
	}

	report, err := os.ReadFile(result.ReportPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(report), "Archive: "+result.ArchivePath) {
		t.Error("report should reference the bundle archive")
	}

	if result.Snapshot == nil {
		t.Fatal("snapshot should be built")
	}
	if len(result.Snapshot.VariableProducts) != 1 {
		t.Errorf("got %d variable groups, want 1", len(result.Snapshot.VariableProducts))
	}
	if countLogs(logs, "Migration run finished") != 1 {
		t.Error("run should log its completion")
	}
}

func TestRun_CancelledBeforeStages(t *testing.T) {
	cfg := testConfig(t, "https://shop.example.com")
	cfg.Exports = config.ExportFlags{Products: true}

	src := &fakeSource{products: []models.Entity{{"id": 1, "name": "Widget"}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var logs []string
	runner := &Runner{Config: cfg, Source: src, Directory: directory.NewClient(time.Millisecond, func(string) {})}
	_, err := runner.Run(ctx, func(s string) { logs = append(logs, s) })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if countLogs(logs, "CANCELLED: run stopped by user") != 1 {
		t.Error("expected the cancellation log line")
	}
}
