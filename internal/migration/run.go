package migration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/storeport/storeport/internal/config"
	"github.com/storeport/storeport/internal/directory"
	"github.com/storeport/storeport/internal/media"
	"github.com/storeport/storeport/internal/models"
	"github.com/storeport/storeport/internal/platform"
	"github.com/storeport/storeport/internal/replay"
)

// ErrNoProducts is the only run-fatal condition: the primary catalog fetch
// and its basic fallback both returned zero items.
var ErrNoProducts = errors.New("no products found")

// StageOutcome records how one stage of a run ended.
type StageOutcome struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "completed", "failed", "skipped", "disabled"
	Detail string `json:"detail,omitempty"`
	Count  int    `json:"count"`
}

// Result is everything a run produced.
type Result struct {
	Run                *models.Run      `json:"run"`
	Outcomes           []StageOutcome   `json:"outcomes"`
	MissingCredentials []string         `json:"missing_credentials,omitempty"`
	Snapshot           *replay.Snapshot `json:"-"`
	ReportPath         string           `json:"report_path,omitempty"`
	ArchivePath        string           `json:"archive_path,omitempty"`
}

// Runner wires a migration run. Zero-value collaborators are built from the
// config; tests inject fakes.
type Runner struct {
	Config     *config.Config
	Source     platform.Source
	Downloader *platform.Client
	Directory  *directory.Client
	Writers    RowWriter
}

// stage is one unit of the ordered pipeline. The driver loop evaluates
// enabled, then runs the action under the catch-log-continue policy.
type stage struct {
	name    string
	enabled func() bool
	run     func(ctx context.Context) error
}

type orchestrator struct {
	cfg      *config.Config
	src      platform.Source
	dl       *platform.Client
	dir      *directory.Client
	writers  RowWriter
	run      *models.Run
	storeDir string
	cache    *media.Cache
	cap      *Captured
	logger   func(string)
	result   *Result
}

// Run executes the full migration pipeline for one store. Only the
// empty-catalog condition aborts the run; every other stage failure is
// isolated, logged and recorded on the Result.
func (r *Runner) Run(ctx context.Context, logger func(string)) (*Result, error) {
	cfg := r.Config
	run := models.NewRun(cfg.Source.BaseURL, cfg.OutputRoot)
	storeDir := filepath.Join(cfg.OutputRoot, run.StoreID)
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output folder: %w", err)
	}

	// One writer per store folder at a time; a second concurrent run
	// against the same store would interleave files.
	lock := flock.New(filepath.Join(storeDir, ".storeport.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking store folder: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another run is already writing %s", storeDir)
	}
	defer lock.Unlock()

	src := r.Source
	if src == nil {
		src = platform.NewSource(&cfg.Source, cfg.Retry)
	}
	dl := r.Downloader
	if dl == nil {
		dl = platform.NewClient(&cfg.Source, cfg.Retry)
	}
	dir := r.Directory
	if dir == nil {
		dir = directory.NewClient(cfg.Directory.LookupDelay, logger)
	}
	writers := r.Writers
	if writers == nil {
		writers = FileWriters{}
	}

	o := &orchestrator{
		cfg:      cfg,
		src:      src,
		dl:       dl,
		dir:      dir,
		writers:  writers,
		run:      run,
		storeDir: storeDir,
		cache:    media.NewCache(dl, logger),
		cap:      NewCaptured(),
		logger:   logger,
		result:   &Result{Run: run},
	}

	logger(fmt.Sprintf("Migrating %s into %s", cfg.Source.BaseURL, storeDir))

	// Stage 1+2: catalog and variations. The catalog is the only stage
	// whose failure is fatal for the whole run.
	if err := o.fetchCatalog(ctx); err != nil {
		return o.result, err
	}

	for _, st := range o.stages() {
		if err := ctx.Err(); err != nil {
			logger("CANCELLED: run stopped by user")
			return o.result, err
		}
		o.runStage(ctx, st)
	}

	// The snapshot is unconditional: whatever was captured is published
	// for later replay, even if no export files were written.
	snap, err := BuildSnapshot(o.run, o.cap)
	if err != nil {
		logger(fmt.Sprintf("  WARNING: snapshot build failed: %v", err))
	} else {
		o.result.Snapshot = snap
		logger(fmt.Sprintf("Snapshot ready: %d products, %d variable groups",
			len(snap.Products), len(snap.VariableProducts)))
	}

	logger("Migration run finished")
	return o.result, nil
}

// runStage enforces the catch-log-continue policy in one place: a stage
// error never propagates, and missing credentials are a skip plus a note
// for the report, not a failure.
func (o *orchestrator) runStage(ctx context.Context, st stage) {
	if !st.enabled() {
		o.record(st.name, "disabled", "", 0)
		return
	}
	o.logger(fmt.Sprintf("Stage: %s", st.name))
	if err := st.run(ctx); err != nil {
		if errors.Is(err, platform.ErrMissingCredentials) {
			note := st.name + " skipped: credentials not configured"
			o.result.MissingCredentials = append(o.result.MissingCredentials, note)
			o.logger("  SKIPPED: " + note)
			o.record(st.name, "skipped", "missing credentials", 0)
			return
		}
		o.logger(fmt.Sprintf("  WARNING: stage %s failed: %v", st.name, err))
		o.record(st.name, "failed", err.Error(), 0)
		return
	}
}

func (o *orchestrator) record(name, status, detail string, count int) {
	o.result.Outcomes = append(o.result.Outcomes, StageOutcome{
		Name: name, Status: status, Detail: detail, Count: count,
	})
}

func (o *orchestrator) complete(name string, count int) {
	o.record(name, "completed", "", count)
	o.logger(fmt.Sprintf("  %d %s", count, name))
}

// stages returns the ordered pipeline that follows the catalog fetch.
// Ordering matters: the media library downloads before content resolution,
// exports derive from captured entities, and the report and bundle close
// the run.
func (o *orchestrator) stages() []stage {
	ex := &o.cfg.Exports
	return []stage{
		{"product images", func() bool { return ex.Products }, o.captureProductImages},
		{"plugin and theme inventory", func() bool { return ex.Plugins || ex.Themes }, o.captureExtensions},
		{"public extension footprints", o.footprintStageEnabled, o.capturePublicFootprints},
		{"directory enrichment", func() bool { return len(o.cap.Footprints) > 0 }, o.enrichFootprints},
		{"design snapshot", func() bool { return ex.Design }, o.captureDesign},
		{"media library", func() bool { return ex.Media }, o.captureMediaLibrary},
		{"pages", func() bool { return ex.Pages }, o.capturePages},
		{"posts", func() bool { return ex.Posts }, o.capturePosts},
		{"menus", func() bool { return ex.Menus }, o.captureMenus},
		{"widgets", func() bool { return ex.Widgets }, o.captureWidgets},
		{"store configuration", func() bool { return ex.Settings || ex.Shipping || ex.Gateways }, o.captureConfiguration},
		{"categories", func() bool { return true }, o.captureCategories},
		{"customers", func() bool { return ex.Customers }, o.captureCustomers},
		{"orders", func() bool { return ex.Orders }, o.captureOrders},
		{"coupons", func() bool { return ex.Coupons }, o.captureCoupons},
		{"subscriptions", func() bool { return ex.Subscriptions }, o.captureSubscriptions},
		{"export files", func() bool { return ex.CSV || ex.JSONL || ex.XLSX }, o.writeExports},
		{"report", func() bool { return true }, o.writeReport},
		{"manual bundle", func() bool { return true }, o.packageBundle},
	}
}

// footprintStageEnabled forces public footprint detection off when the
// authenticated introspection stage can run: the scrape would only repeat
// what the plugin/theme inventory already captured exactly.
func (o *orchestrator) footprintStageEnabled() bool {
	if !o.cfg.Exports.Footprints {
		return false
	}
	if (o.cfg.Exports.Plugins || o.cfg.Exports.Themes) && o.src.CanIntrospectExtensions() {
		o.logger("Skipping public footprint detection: authenticated plugin/theme export makes it redundant")
		return false
	}
	return true
}

// fetchCatalog fetches the primary catalog with a basic fallback, then the
// variations for variable items in a single batched call.
func (o *orchestrator) fetchCatalog(ctx context.Context) error {
	o.logger("Stage: products")
	products, err := o.src.FetchProducts(ctx, o.cfg.Filters)
	if err != nil || len(products) == 0 {
		if err != nil {
			o.logger(fmt.Sprintf("  WARNING: product fetch failed (%v), trying basic fetch", err))
		}
		products, err = o.src.FetchProductsBasic(ctx)
		if err != nil {
			o.logger(fmt.Sprintf("  WARNING: basic product fetch failed: %v", err))
		}
	}
	if len(products) == 0 {
		o.logger("no products found")
		return ErrNoProducts
	}
	o.cap.Products = products
	o.complete("products", len(products))

	if !o.cfg.Exports.Variations {
		o.record("variations", "disabled", "", 0)
		return nil
	}
	var parentIDs []int
	for _, p := range products {
		if isVariableProduct(p) {
			parentIDs = append(parentIDs, entityID(p))
		}
	}
	if len(parentIDs) == 0 {
		o.complete("variations", 0)
		return nil
	}
	variations, err := o.src.FetchVariations(ctx, parentIDs)
	if err != nil {
		// Variation failure is stage-local, not fatal.
		o.logger(fmt.Sprintf("  WARNING: stage variations failed: %v", err))
		o.record("variations", "failed", err.Error(), 0)
		return nil
	}
	o.cap.Variations = variations
	o.complete("variations", len(variations))
	return nil
}
