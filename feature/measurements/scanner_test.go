package measurements

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"measurement-extractor/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	adms, stats, err := scanString(t, chartCSV, 0)
	require.NoError(t, err)

	assert.Equal(t, 8, stats.RecordsScanned)
	assert.Equal(t, 9, stats.RowsExamined)
	assert.Equal(t, 1, stats.ErrorRows)
	assert.Equal(t, 7, stats.MatchedRows)
	assert.Equal(t, []string{"226707", "220179"}, stats.ItemsObserved)
	assert.False(t, stats.CutoffReached)

	assert.Equal(t, []string{"1", "2", "3"}, adms.IDs())

	slot, ok := adms.Slot("1", "226707")
	require.True(t, ok)
	assert.Equal(t, reconcile.Multiple{{Value: "170", Unit: "cm"}, {Value: "170", Unit: "cm"}}, slot)

	slot, ok = adms.Slot("2", "220179")
	require.True(t, ok)
	assert.Equal(t, reconcile.Single{Observation: reconcile.Observation{Value: "118", Unit: "mmhg"}}, slot)
}

func TestScan_ErrorRowNeverContributes(t *testing.T) {
	adms, stats, err := scanString(t, chartCSV, 0)
	require.NoError(t, err)

	_, ok := adms.Slot("3", "226707")
	assert.False(t, ok)
	assert.Equal(t, stats.RowsExamined-1, stats.RecordsScanned)
}

func TestScan_NoErrorColumn(t *testing.T) {
	content := "ITEMID,HADM_ID,VALUEUOM,VALUENUM\n226707,5,in.,66\n226707,5,In,67\n"
	adms, stats, err := scanString(t, content, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.RecordsScanned)
	slot, _ := adms.Slot("5", "226707")
	assert.Equal(t, reconcile.Multiple{{Value: "66", Unit: "in"}, {Value: "67", Unit: "in"}}, slot)
}

func TestScan_MaxRows(t *testing.T) {
	tests := []struct {
		maxRows  int
		examined int
		scanned  int
		adms     []string
	}{
		{maxRows: 1, examined: 1, scanned: 1, adms: []string{"1"}},
		{maxRows: 3, examined: 3, scanned: 3, adms: []string{"1"}},
		{maxRows: 7, examined: 7, scanned: 6, adms: []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("max_rows=%d", tt.maxRows), func(t *testing.T) {
			adms, stats, err := scanString(t, chartCSV, tt.maxRows)
			require.NoError(t, err)
			assert.True(t, stats.CutoffReached)
			assert.Equal(t, tt.examined, stats.RowsExamined)
			assert.Equal(t, tt.scanned, stats.RecordsScanned)
			assert.Equal(t, tt.adms, adms.IDs())
		})
	}

	// A limit past the end is not a cutoff.
	_, stats, err := scanString(t, chartCSV, 100)
	require.NoError(t, err)
	assert.False(t, stats.CutoffReached)
}

func TestScan_TruncatedStreamReconcilesLikeCutoff(t *testing.T) {
	lines := strings.SplitAfter(chartCSV, "\n")
	truncated := strings.Join(lines[:4], "")

	cutAdms, cutStats, err := scanString(t, chartCSV, 3)
	require.NoError(t, err)
	fullAdms, fullStats, err := scanString(t, truncated, 0)
	require.NoError(t, err)

	items := testItems(t)
	assert.Equal(t,
		reconcile.Resolve(fullAdms, items, fullStats.ItemsObserved).Rows,
		reconcile.Resolve(cutAdms, items, cutStats.ItemsObserved).Rows)
}

func TestScan_SchemaError(t *testing.T) {
	_, _, err := scanString(t, "ROW_ID,ITEMID,VALUENUM\n1,226707,170\n", 0)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"HADM_ID", "VALUEUOM"}, schemaErr.Missing)
	assert.True(t, IsClientError(err))

	_, _, err = scanString(t, "", 0)
	assert.ErrorAs(t, err, &schemaErr)
}

func TestScan_ByteOrderMark(t *testing.T) {
	content := "\ufeffVALUENUM,HADM_ID,ITEMID,VALUEUOM\n170,1,226707,cm\n"
	_, stats, err := scanString(t, content, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MatchedRows)
}

func TestScan_ShortRow(t *testing.T) {
	content := "VALUENUM,HADM_ID,ITEMID,VALUEUOM\n170,1,226707,cm\n170,1\n"
	_, _, err := scanString(t, content, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Scan(ctx, strings.NewReader(chartCSV), testItems(t), 0)
	assert.ErrorIs(t, err, context.Canceled)
}
