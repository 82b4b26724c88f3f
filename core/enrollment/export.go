package enrollment

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Record is one submitted application as stored remotely.
type Record struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

var ErrNoRecords = errors.New("no records to export")

// ToCSV renders the record set as CSV text. The header is the union of all
// records' field keys (not just the first record's — partial records would
// otherwise shift columns), in first-seen order with newly discovered keys
// sorted per record for determinism. Missing fields render as empty cells.
func ToCSV(records []Record) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}

	var headers []string
	seen := make(map[string]bool)
	for _, rec := range records {
		fresh := make([]string, 0, len(rec.Fields))
		for key := range rec.Fields {
			if !seen[key] {
				seen[key] = true
				fresh = append(fresh, key)
			}
		}
		sort.Strings(fresh)
		headers = append(headers, fresh...)
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return "", errors.Wrap(err, "writing CSV header")
	}
	row := make([]string, len(headers))
	for _, rec := range records {
		for i, key := range headers {
			row[i] = formatCSVValue(rec.Fields[key])
		}
		if err := w.Write(row); err != nil {
			return "", errors.Wrap(err, "writing CSV row")
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// ExportFilename is the CSV download name: <app>-applications-<ISO date>.csv.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("kairos-applications-%s.csv", now.Format("2006-01-02"))
}

func formatCSVValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case float64:
		// JSON numbers decode as float64; render integers without a decimal point.
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
