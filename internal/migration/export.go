package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/storeport/storeport/internal/models"
)

// exportSet names each derived artifact and the entities it flattens.
type exportSet struct {
	artifact string
	items    []models.Entity
}

// writeExports derives row sets from the captured entities and hands them
// to the format writers. Writer invocations are independent: an empty row
// set is logged, not an error, and one writer failing does not stop the
// others.
func (o *orchestrator) writeExports(ctx context.Context) error {
	sets := []exportSet{
		{"products", o.cap.Products},
		{"variations", o.cap.Variations},
		{"categories", o.cap.Categories},
		{"customers", o.cap.Customers},
		{"orders", o.cap.Orders},
		{"coupons", o.cap.Coupons},
		{"subscriptions", o.cap.Subscriptions},
	}

	written := 0
	for _, set := range sets {
		if len(set.items) == 0 {
			o.logger(fmt.Sprintf("  no %s to export", set.artifact))
			continue
		}
		rows := entityRows(set.items)
		base := filepath.Join(o.storeDir, fmt.Sprintf("%s_%s", o.run.FilePrefix(), set.artifact))

		if o.cfg.Exports.CSV {
			if err := o.writers.WriteCSV(base+".csv", rows); err != nil {
				o.logger(fmt.Sprintf("  WARNING: csv export of %s: %v", set.artifact, err))
			} else {
				written++
			}
		}
		if o.cfg.Exports.JSONL {
			if err := o.writers.WriteJSONL(base+".jsonl", rows); err != nil {
				o.logger(fmt.Sprintf("  WARNING: jsonl export of %s: %v", set.artifact, err))
			} else {
				written++
			}
		}
		if o.cfg.Exports.XLSX {
			if err := o.writers.WriteXLSX(base+".xlsx", rows); err != nil {
				o.logger(fmt.Sprintf("  WARNING: xlsx export of %s: %v", set.artifact, err))
			} else {
				written++
			}
		}
	}
	o.complete("export files", written)
	return nil
}

// entityRows flattens entities into string-keyed rows: scalars printed,
// nested structures encoded as compact JSON.
func entityRows(items []models.Entity) []map[string]string {
	rows := make([]map[string]string, 0, len(items))
	for _, e := range items {
		row := make(map[string]string, len(e))
		keys := make([]string, 0, len(e))
		for k := range e {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			row[k] = fieldString(e[k])
		}
		rows = append(rows, row)
	}
	return rows
}

func fieldString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return fmt.Sprintf("%t", t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(data)
	}
}
