package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storeport/storeport/internal/models"
)

// fakeDownloader counts calls per URL and can fail on demand.
type fakeDownloader struct {
	calls map[string]int
	fail  map[string]bool
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{calls: make(map[string]int), fail: make(map[string]bool)}
}

func (f *fakeDownloader) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	f.calls[rawURL]++
	if f.fail[rawURL] {
		return nil, "", fmt.Errorf("connection refused")
	}
	return []byte("content of " + rawURL), "image/jpeg", nil
}

func TestCache_ResolveDownloadsOnce(t *testing.T) {
	dl := newFakeDownloader()
	cache := NewCache(dl, func(string) {})
	root := t.TempDir()

	url := "https://shop.example.com/wp-content/uploads/photo.jpg"
	first := cache.Resolve(context.Background(), url, root, "images")
	if first == nil {
		t.Fatal("Resolve returned nil for a successful download")
	}
	second := cache.Resolve(context.Background(), url, root, "images")
	if second != first {
		t.Error("second Resolve should return the cached reference")
	}
	if dl.calls[url] != 1 {
		t.Errorf("Download called %d times, want 1", dl.calls[url])
	}

	if _, err := os.Stat(first.AbsolutePath); err != nil {
		t.Errorf("resolved file missing: %v", err)
	}
	if !strings.HasPrefix(first.RelativePath, "images"+string(filepath.Separator)) {
		t.Errorf("RelativePath = %q, want under images/", first.RelativePath)
	}
}

func TestCache_FailureNotCached(t *testing.T) {
	dl := newFakeDownloader()
	cache := NewCache(dl, func(string) {})
	root := t.TempDir()

	url := "https://shop.example.com/broken.jpg"
	dl.fail[url] = true

	if ref := cache.Resolve(context.Background(), url, root, "images"); ref != nil {
		t.Fatal("Resolve should return nil on download failure")
	}
	if cache.Len() != 0 {
		t.Errorf("Len = %d, failures must not be cached", cache.Len())
	}

	// The URL recovers: a later reference retries and succeeds.
	dl.fail[url] = false
	if ref := cache.Resolve(context.Background(), url, root, "images"); ref == nil {
		t.Fatal("Resolve should retry a previously failed URL")
	}
	if dl.calls[url] != 2 {
		t.Errorf("Download called %d times, want 2", dl.calls[url])
	}
}

func TestCache_EmptyURL(t *testing.T) {
	cache := NewCache(newFakeDownloader(), func(string) {})
	if ref := cache.Resolve(context.Background(), "", t.TempDir(), "images"); ref != nil {
		t.Error("Resolve of empty URL should return nil")
	}
}

func TestCache_ResolveLibraryItem_UploadFolder(t *testing.T) {
	dl := newFakeDownloader()
	cache := NewCache(dl, func(string) {})
	root := t.TempDir()

	item := models.Entity{
		"source_url": "https://shop.example.com/wp-content/uploads/2023/07/banner.png",
	}
	ref := cache.ResolveLibraryItem(context.Background(), item, root)
	if ref == nil {
		t.Fatal("ResolveLibraryItem returned nil")
	}
	want := filepath.Join("media", "2023", "07", "banner.png")
	if ref.RelativePath != want {
		t.Errorf("RelativePath = %q, want %q", ref.RelativePath, want)
	}
}

func TestCache_ResolveLibraryItem_FlatFallback(t *testing.T) {
	dl := newFakeDownloader()
	cache := NewCache(dl, func(string) {})
	root := t.TempDir()

	item := models.Entity{"source_url": "https://cdn.example.com/assets/banner.png"}
	ref := cache.ResolveLibraryItem(context.Background(), item, root)
	if ref == nil {
		t.Fatal("ResolveLibraryItem returned nil")
	}
	if filepath.Dir(ref.RelativePath) != "media" {
		t.Errorf("RelativePath = %q, want directly under media/", ref.RelativePath)
	}
}

func TestFilename(t *testing.T) {
	a := Filename("https://x.test/a/photo.jpg", "")
	b := Filename("https://x.test/b/photo.jpg", "")
	if a == b {
		t.Errorf("distinct URLs with the same basename must not collide: %q", a)
	}
	if !strings.HasPrefix(a, "photo_") || !strings.HasSuffix(a, ".jpg") {
		t.Errorf("Filename = %q, want photo_<hash>.jpg", a)
	}

	// No URL extension: fall back to the content type.
	c := Filename("https://x.test/image/12345", "image/png")
	if !strings.HasSuffix(c, ".png") {
		t.Errorf("Filename = %q, want .png suffix from content type", c)
	}
	d := Filename("https://x.test/blob", "application/octet-stream")
	if !strings.HasSuffix(d, ".bin") {
		t.Errorf("Filename = %q, want .bin fallback", d)
	}
}
