package enrollment

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseCSV(t *testing.T, content string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestToCSV_headerIsUnionOfKeys(t *testing.T) {
	// the second record carries fields the first never had; the header must
	// still cover them so columns never shift
	records := []Record{
		{ID: "rec1", Fields: map[string]interface{}{"Student Name": "Ada Lovelace", "Total Paid": 120}},
		{ID: "rec2", Fields: map[string]interface{}{"Student Name": "Grace Hopper", "Convenience Fee": 3, "Total Paid": 123}},
	}

	content, err := ToCSV(records)
	require.NoError(t, err)

	rows := parseCSV(t, content)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Student Name", "Total Paid", "Convenience Fee"}, rows[0])
	assert.Equal(t, []string{"Ada Lovelace", "120", ""}, rows[1])
	assert.Equal(t, []string{"Grace Hopper", "123", "3"}, rows[2])
}

func TestToCSV_quoting(t *testing.T) {
	records := []Record{
		{ID: "rec1", Fields: map[string]interface{}{
			"Student Address": "1 Main St, Bay City, TX, 77414",
			"Supply Fee":      true,
			"Student Phone":   float64(9792653590),
		}},
	}

	content, err := ToCSV(records)
	require.NoError(t, err)

	rows := parseCSV(t, content)
	require.Len(t, rows, 2)
	byKey := make(map[string]string, len(rows[0]))
	for i, key := range rows[0] {
		byKey[key] = rows[1][i]
	}
	assert.Equal(t, "1 Main St, Bay City, TX, 77414", byKey["Student Address"])
	assert.Equal(t, "true", byKey["Supply Fee"])
	assert.Equal(t, "9792653590", byKey["Student Phone"])
}

func TestToCSV_noRecords(t *testing.T) {
	_, err := ToCSV(nil)
	assert.Equal(t, ErrNoRecords, err)
	_, err = ToCSV([]Record{})
	assert.Equal(t, ErrNoRecords, err)
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, 8, 24, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "kairos-applications-2026-08-24.csv", ExportFilename(now))
}
