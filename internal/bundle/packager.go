// Package bundle assembles the manual follow-up archive: deliverables a
// human must act on after the automated migration, plus the run report.
package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const ReportFilename = "manual-migration-report.md"

var deliverableExts = map[string]bool{
	".csv":   true,
	".json":  true,
	".jsonl": true,
	".xlsx":  true,
}

// Package collects the run's deliverables by naming convention, stages
// them into a temporary folder and compresses the staging folder into a
// single archive one level above the store folder. An empty deliverable
// set returns "" without error; staging or compression failures are
// logged and also yield ""; packaging never aborts a run. The staging
// folder is removed unconditionally.
func Package(outputRoot, storeDir, prefix string, logger func(string)) (string, error) {
	deliverables, err := collectDeliverables(storeDir, prefix)
	if err != nil {
		logger(fmt.Sprintf("  WARNING: bundle collection failed: %v", err))
		return "", nil
	}
	if len(deliverables) == 0 {
		return "", nil
	}

	staging, err := os.MkdirTemp("", "storeport-bundle-")
	if err != nil {
		logger(fmt.Sprintf("  WARNING: bundle staging failed: %v", err))
		return "", nil
	}
	// Cleanup guarantee: the staging folder never outlives the call.
	defer os.RemoveAll(staging)

	for _, src := range deliverables {
		dst := filepath.Join(staging, filepath.Base(src))
		if err := copyPath(src, dst); err != nil {
			logger(fmt.Sprintf("  WARNING: bundle staging failed for %s: %v", src, err))
			return "", nil
		}
	}

	archivePath := filepath.Join(outputRoot, prefix+"_manual_bundle.zip")
	if err := zipFolder(staging, archivePath); err != nil {
		logger(fmt.Sprintf("  WARNING: bundle compression failed: %v", err))
		os.Remove(archivePath)
		return "", nil
	}

	reportPath := filepath.Join(storeDir, ReportFilename)
	if _, err := os.Stat(reportPath); err == nil {
		if err := AnnotateReport(reportPath, archivePath); err != nil {
			logger(fmt.Sprintf("  WARNING: report annotation failed: %v", err))
		}
	}

	return archivePath, nil
}

// collectDeliverables returns the report (if present), the design
// subfolder (if present) and every generated export file matching the
// run's filename prefix.
func collectDeliverables(storeDir, prefix string) ([]string, error) {
	var deliverables []string

	reportPath := filepath.Join(storeDir, ReportFilename)
	if _, err := os.Stat(reportPath); err == nil {
		deliverables = append(deliverables, reportPath)
	}

	designDir := filepath.Join(storeDir, "design")
	if info, err := os.Stat(designDir); err == nil && info.IsDir() {
		deliverables = append(deliverables, designDir)
	}

	entries, err := os.ReadDir(storeDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", storeDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && deliverableExts[strings.ToLower(filepath.Ext(name))] {
			deliverables = append(deliverables, filepath.Join(storeDir, name))
		}
	}
	return deliverables, nil
}

// AnnotateReport appends an "Archive:" reference line to the report.
// Re-running annotation never duplicates the line.
func AnnotateReport(reportPath, archivePath string) error {
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}
	line := "Archive: " + archivePath
	for _, existing := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(existing) == line {
			return nil
		}
	}
	text := string(data)
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text += "\n" + line + "\n"
	return os.WriteFile(reportPath, []byte(text), 0644)
}

// copyPath copies a file verbatim or a directory recursively.
func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst, info.Mode())
	}
	return filepath.Walk(src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if fi.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target, fi.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// zipFolder compresses the contents of folder into a zip archive.
func zipFolder(folder, archivePath string) error {
	f, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	err = filepath.Walk(folder, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}
