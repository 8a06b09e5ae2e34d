package migration

import (
	"fmt"
	"strings"

	"github.com/storeport/storeport/internal/models"
)

// BuildReport renders the human-readable run summary as markdown: stage
// outcomes, entity counts, skipped features and any crawl limits reached.
func BuildReport(run *models.Run, cap *Captured, result *Result) string {
	var b strings.Builder

	b.WriteString("# Manual migration report\n\n")
	fmt.Fprintf(&b, "- Source: %s\n", run.SourceURL)
	fmt.Fprintf(&b, "- Store: %s\n", run.StoreID)
	fmt.Fprintf(&b, "- Run: %s (UTC)\n\n", run.Timestamp)

	b.WriteString("## Stages\n\n")
	b.WriteString("| Stage | Status | Items | Detail |\n")
	b.WriteString("|-------|--------|-------|--------|\n")
	for _, out := range result.Outcomes {
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", out.Name, out.Status, out.Count, out.Detail)
	}
	b.WriteString("\n")

	if len(result.MissingCredentials) > 0 {
		b.WriteString("## Skipped for missing credentials\n\n")
		for _, note := range result.MissingCredentials {
			fmt.Fprintf(&b, "- %s\n", note)
		}
		b.WriteString("\n")
	}

	if cap.CrawlSummary != nil {
		s := cap.CrawlSummary
		b.WriteString("## Footprint crawl\n\n")
		fmt.Fprintf(&b, "- Pages processed: %d\n", s.ProcessedPageCount)
		fmt.Fprintf(&b, "- Bytes downloaded: %d\n", s.TotalBytesDownloaded)
		if s.PageLimitReached {
			b.WriteString("- NOTE: the configured page cap was reached; some pages were not crawled.\n")
		}
		if s.ByteLimitReached {
			b.WriteString("- NOTE: the configured byte cap was reached; some pages were not crawled.\n")
		}
		b.WriteString("\n")
	}

	if len(cap.Footprints) > 0 {
		b.WriteString("## Detected extensions\n\n")
		for _, fp := range cap.Footprints {
			line := fmt.Sprintf("- %s `%s`", fp.Type, fp.Slug)
			if fp.Name != "" {
				line += " - " + fp.Name
			}
			if fp.DirectoryStatus != "" {
				line += fmt.Sprintf(" (%s)", fp.DirectoryStatus)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Manual follow-up\n\n")
	b.WriteString("Review the bundled deliverables and apply anything that cannot be\n")
	b.WriteString("provisioned automatically: extension licenses, payment gateway\n")
	b.WriteString("credentials and theme customizations.\n")

	return b.String()
}
