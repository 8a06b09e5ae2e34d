package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/storeport/storeport/internal/bundle"
	"github.com/storeport/storeport/internal/design"
	"github.com/storeport/storeport/internal/models"
	"github.com/storeport/storeport/internal/platform"
)

// captureProductImages resolves every product image through the media
// cache into images/. Individual download failures are already logged and
// skipped by the cache.
func (o *orchestrator) captureProductImages(ctx context.Context) error {
	count := 0
	for _, p := range o.cap.Products {
		id := entityID(p)
		for _, src := range imageURLs(p) {
			if ref := o.cache.Resolve(ctx, src, o.storeDir, "images"); ref != nil {
				o.cap.ProductImages[id] = append(o.cap.ProductImages[id], ref)
				count++
			}
		}
	}
	o.complete("product images", count)
	return nil
}

// captureExtensions fetches the authenticated plugin/theme inventory and
// writes one bundle folder per extension with its options snapshot. The
// inventory also feeds the footprint list for directory enrichment.
func (o *orchestrator) captureExtensions(ctx context.Context) error {
	var entities []struct {
		kind  string
		items []models.Entity
	}
	if o.cfg.Exports.Plugins {
		plugins, err := o.src.FetchPlugins(ctx)
		if err != nil {
			return err
		}
		entities = append(entities, struct {
			kind  string
			items []models.Entity
		}{"plugin", plugins})
	}
	if o.cfg.Exports.Themes {
		themes, err := o.src.FetchThemes(ctx)
		if err != nil {
			return err
		}
		entities = append(entities, struct {
			kind  string
			items []models.Entity
		}{"theme", themes})
	}

	count := 0
	for _, group := range entities {
		for i, e := range group.items {
			slug := extensionSlug(e, group.kind, i)
			folder := filepath.Join(o.storeDir, group.kind+"s", slug)
			if err := writeEntityFile(filepath.Join(folder, "options.json"), e); err != nil {
				o.logger(fmt.Sprintf("  WARNING: bundle for %s %s: %v", group.kind, slug, err))
				continue
			}
			o.cap.Extensions = append(o.cap.Extensions, models.ExtensionArtifact{
				Slug: slug, Type: group.kind, BundlePath: folder,
			})
			o.cap.Footprints = append(o.cap.Footprints, models.Footprint{
				Type:    group.kind,
				Slug:    slug,
				Name:    entityName(e),
				Version: stringField(e, "version"),
			})
			count++
		}
	}
	o.complete("plugin and theme inventory", count)
	return nil
}

// capturePublicFootprints crawls public pages for extension slugs when
// authenticated introspection is unavailable.
func (o *orchestrator) capturePublicFootprints(ctx context.Context) error {
	opts := platform.FootprintOptions{
		ExtraURLs: o.cfg.Footprint.ExtraURLs,
		MaxPages:  o.cfg.Footprint.MaxPages,
		MaxBytes:  o.cfg.Footprint.MaxBytes,
	}
	footprints, summary, err := platform.DetectFootprints(ctx, o.dl, o.cfg.Source.BaseURL, opts, o.logger)
	o.cap.CrawlSummary = &summary
	if err != nil {
		return err
	}
	o.cap.Footprints = append(o.cap.Footprints, footprints...)
	if summary.PageLimitReached {
		o.logger(fmt.Sprintf("  NOTE: crawl stopped at the %d-page cap (%d pages, %d bytes processed)",
			o.cfg.Footprint.MaxPages, summary.ProcessedPageCount, summary.TotalBytesDownloaded))
	}
	if summary.ByteLimitReached {
		o.logger(fmt.Sprintf("  NOTE: crawl stopped at the byte cap (%d pages, %d bytes processed)",
			summary.ProcessedPageCount, summary.TotalBytesDownloaded))
	}
	o.complete("public extension footprints", len(footprints))
	return nil
}

// enrichFootprints annotates every detected footprint with public
// directory metadata, throttled and cached by the directory client.
func (o *orchestrator) enrichFootprints(ctx context.Context) error {
	resolved := 0
	for i := range o.cap.Footprints {
		o.dir.Enrich(ctx, &o.cap.Footprints[i])
		if o.cap.Footprints[i].DirectoryStatus == "resolved" {
			resolved++
		}
	}
	o.logger(fmt.Sprintf("  %d of %d footprints resolved in directory", resolved, len(o.cap.Footprints)))
	o.record("directory enrichment", "completed", "", resolved)
	return nil
}

func (o *orchestrator) captureDesign(ctx context.Context) error {
	manifest, err := design.Capture(ctx, o.dl, o.cfg.Source.BaseURL, o.storeDir, o.logger)
	if err != nil {
		return err
	}
	o.cap.DesignManifest = manifest
	o.record("design snapshot", "completed", "", len(manifest.Entries))
	return nil
}

// captureMediaLibrary downloads the WordPress media library before any
// content stage resolves references to it.
func (o *orchestrator) captureMediaLibrary(ctx context.Context) error {
	items, err := o.src.FetchMediaLibrary(ctx)
	if err != nil {
		return err
	}
	o.cap.MediaLibrary = items
	count := 0
	for _, item := range items {
		if ref := o.cache.ResolveLibraryItem(ctx, item, o.storeDir); ref != nil {
			count++
		}
	}
	o.complete("media library", count)
	return nil
}

var contentImgRe = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)

func (o *orchestrator) capturePages(ctx context.Context) error {
	pages, err := o.src.FetchPages(ctx)
	if err != nil {
		return err
	}
	o.cap.Pages = pages
	o.writeContentFiles(ctx, "page", pages)
	o.complete("pages", len(pages))
	return nil
}

func (o *orchestrator) capturePosts(ctx context.Context) error {
	posts, err := o.src.FetchPosts(ctx)
	if err != nil {
		return err
	}
	o.cap.Posts = posts
	o.writeContentFiles(ctx, "post", posts)
	o.complete("posts", len(posts))
	return nil
}

// writeContentFiles saves raw content documents under content/ and
// resolves their embedded media references into media/content/. The media
// library stage ran first, so shared URLs are already cache hits.
func (o *orchestrator) writeContentFiles(ctx context.Context, kind string, items []models.Entity) {
	for i, item := range items {
		slug := stringField(item, "slug")
		if slug == "" {
			slug = fmt.Sprintf("%s-%d", kind, i)
		}
		name := fmt.Sprintf("%s-%s.json", kind, models.SanitizeToken(slug))
		if err := writeEntityFile(filepath.Join(o.storeDir, "content", name), item); err != nil {
			o.logger(fmt.Sprintf("  WARNING: writing %s: %v", name, err))
		}
		content := renderedField(item, "content")
		for _, m := range contentImgRe.FindAllStringSubmatch(content, -1) {
			o.cache.Resolve(ctx, m[1], o.storeDir, filepath.Join("media", "content"))
		}
	}
}

func (o *orchestrator) captureMenus(ctx context.Context) error {
	menus, err := o.src.FetchMenus(ctx)
	if err != nil {
		return err
	}
	o.cap.Menus = menus
	o.complete("menus", len(menus))
	return nil
}

func (o *orchestrator) captureWidgets(ctx context.Context) error {
	widgets, err := o.src.FetchWidgets(ctx)
	if err != nil {
		return err
	}
	o.cap.Widgets = widgets
	o.complete("widgets", len(widgets))
	return nil
}

// captureConfiguration fetches settings, shipping zones and payment
// gateways. Sub-fetch failures degrade to warnings so a partial
// configuration still lands in the snapshot.
func (o *orchestrator) captureConfiguration(ctx context.Context) error {
	count := 0
	if o.cfg.Exports.Settings {
		settings, err := o.src.FetchSettings(ctx)
		if err != nil {
			if errors.Is(err, platform.ErrMissingCredentials) {
				return err
			}
			o.logger(fmt.Sprintf("  WARNING: settings fetch failed: %v", err))
		} else {
			o.cap.Settings = settings
			count += len(settings)
		}
	}
	if o.cfg.Exports.Shipping {
		zones, err := o.src.FetchShippingZones(ctx)
		if err != nil {
			if errors.Is(err, platform.ErrMissingCredentials) {
				return err
			}
			o.logger(fmt.Sprintf("  WARNING: shipping zone fetch failed: %v", err))
		} else {
			o.cap.ShippingZones = zones
			count += len(zones)
		}
	}
	if o.cfg.Exports.Gateways {
		gateways, err := o.src.FetchPaymentGateways(ctx)
		if err != nil {
			if errors.Is(err, platform.ErrMissingCredentials) {
				return err
			}
			o.logger(fmt.Sprintf("  WARNING: payment gateway fetch failed: %v", err))
		} else {
			o.cap.PaymentGateways = gateways
			count += len(gateways)
		}
	}
	o.complete("store configuration", count)
	return nil
}

func (o *orchestrator) captureCategories(ctx context.Context) error {
	categories, err := o.src.FetchCategories(ctx)
	if err != nil {
		return err
	}
	o.cap.Categories = categories
	o.complete("categories", len(categories))
	return nil
}

func (o *orchestrator) captureCustomers(ctx context.Context) error {
	customers, err := o.src.FetchCustomers(ctx)
	if err != nil {
		return err
	}
	o.cap.Customers = customers
	o.complete("customers", len(customers))
	return nil
}

func (o *orchestrator) captureOrders(ctx context.Context) error {
	orders, err := o.src.FetchOrders(ctx)
	if err != nil {
		return err
	}
	o.cap.Orders = orders
	o.complete("orders", len(orders))
	return nil
}

func (o *orchestrator) captureCoupons(ctx context.Context) error {
	coupons, err := o.src.FetchCoupons(ctx)
	if err != nil {
		return err
	}
	o.cap.Coupons = coupons
	o.complete("coupons", len(coupons))
	return nil
}

func (o *orchestrator) captureSubscriptions(ctx context.Context) error {
	subs, err := o.src.FetchSubscriptions(ctx)
	if err != nil {
		return err
	}
	o.cap.Subscriptions = subs
	o.complete("subscriptions", len(subs))
	return nil
}

// writeReport builds the human-readable run summary.
func (o *orchestrator) writeReport(ctx context.Context) error {
	text := BuildReport(o.run, o.cap, o.result)
	reportPath := filepath.Join(o.storeDir, "manual-migration-report.md")
	if err := os.WriteFile(reportPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	o.result.ReportPath = reportPath
	o.record("report", "completed", "", 1)
	return nil
}

// packageBundle archives the manual follow-up deliverables. An empty
// deliverable set is not an error; packaging failures never abort the run.
func (o *orchestrator) packageBundle(ctx context.Context) error {
	archivePath, err := bundle.Package(o.cfg.OutputRoot, o.storeDir, o.run.FilePrefix(), o.logger)
	if err != nil {
		return err
	}
	if archivePath == "" {
		o.logger("  no deliverables to bundle")
		o.record("manual bundle", "completed", "no deliverables", 0)
		return nil
	}
	o.result.ArchivePath = archivePath
	o.logger("  bundle: " + archivePath)
	o.record("manual bundle", "completed", "", 1)
	return nil
}

// extensionSlug resolves a bundle slug: explicit slug field, then a
// derivable identifier (plugin file path or theme stylesheet id), then the
// sanitized display name, then a generated fallback.
func extensionSlug(e models.Entity, kind string, index int) string {
	if slug := stringField(e, "slug"); slug != "" {
		return slug
	}
	if pluginFile := stringField(e, "plugin"); pluginFile != "" {
		// "akismet/akismet" → "akismet"
		if dir := path.Dir(pluginFile); dir != "." && dir != "/" {
			return models.SanitizeToken(dir)
		}
		return models.SanitizeToken(strings.TrimSuffix(path.Base(pluginFile), path.Ext(pluginFile)))
	}
	if stylesheet := stringField(e, "stylesheet"); stylesheet != "" {
		return models.SanitizeToken(stylesheet)
	}
	if name := entityName(e); name != "" {
		if token := models.SanitizeToken(name); token != "" {
			return token
		}
	}
	return fmt.Sprintf("%s-%d", kind, index+1)
}

func writeEntityFile(filePath string, e models.Entity) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
