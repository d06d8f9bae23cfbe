package measurements

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"measurement-extractor/core/reconcile"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// chartCSV covers a clean admission (1), a SAME conflict (2), an admission whose only
// HEIGHT reading is error-flagged (3) and an uninteresting item (4).
const chartCSV = `ROW_ID,HADM_ID,ITEMID,VALUENUM,VALUEUOM,ERROR
1,1,226707,170,cm,0
2,1,226707,170,cm,
3,1,220179,120,mmHg,0
4,2,226707,170,cm,0
5,2,226707,175,cm,0
6,2,220179,118,mm Hg,0
7,3,226707,160,cm,1
8,3,220179,110,mmHg,0
9,4,999999,1,x,0
`

func testItems(t *testing.T) *reconcile.Items {
	t.Helper()
	items, err := reconcile.NewItems(
		reconcile.Item{ID: "226707", Label: "Height", Header: "HEIGHT", Policy: reconcile.PolicySame},
		reconcile.Item{ID: "220179", Label: "NIBP sys", Header: "NIBP_SYS", Policy: reconcile.PolicyMean},
	)
	require.NoError(t, err)
	return items
}

func testDocument(chart string) string {
	return "chart: " + chart + `
items_of_interest:
  '226707': ['Height', 'HEIGHT', 'same']
  '220179': ['NIBP sys', 'NIBP_SYS', 'mean']
`
}

func gzipBytes(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeChart(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, "CHARTEVENTS.csv.gz")
	require.NoError(t, os.WriteFile(path, gzipBytes(t, content), 0o644))
	return path
}

func readTable(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	rows, err := csv.NewReader(zr).ReadAll()
	require.NoError(t, err)
	return rows
}

func scanString(t *testing.T, content string, maxRows int) (*reconcile.Admissions, ScanStats, error) {
	t.Helper()
	return Scan(testContext(t), strings.NewReader(content), testItems(t), maxRows)
}

// testContext stands in for t.Context (Go 1.24+): a context cancelled when the test ends.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
