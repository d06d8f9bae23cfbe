package measurements

import (
	"bytes"
	"testing"

	"measurement-extractor/core/reconcile"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioReport(t *testing.T) (*Report, *reconcile.Admissions) {
	t.Helper()
	adms, stats, err := scanString(t, chartCSV, 0)
	require.NoError(t, err)

	items := testItems(t)
	outcome := reconcile.Resolve(adms, items, stats.ItemsObserved)
	return BuildReport(adms, items, outcome, stats), adms
}

func TestBuildReport(t *testing.T) {
	report, adms := scenarioReport(t)

	assert.Equal(t, 1, report.ConflictedAdmissions)
	require.Len(t, report.Conflicts, 1)
	c := report.Conflicts[0]
	assert.Equal(t, "2", c.AdmissionID)
	assert.Equal(t, "226707", c.Item.ID)
	assert.Equal(t, reconcile.ReasonPolicyViolation, c.Reason)
	assert.Len(t, c.Observations, 2)

	assert.Equal(t, 1, report.IncompleteAdmissions)
	assert.Equal(t, []IncompleteDetail{{AdmissionID: "3", MissingItems: []string{"226707"}}}, report.Incomplete)

	assert.Equal(t, 1, report.CompleteAdmissions)
	assert.Equal(t, []string{"HEIGHT", "NIBP_SYS"}, report.PopulatedHeaders)

	// Only the clean admission is left behind.
	assert.Equal(t, []string{"1"}, adms.IDs())
}

func TestBuildReport_ConflictBeatsIncomplete(t *testing.T) {
	content := "HADM_ID,ITEMID,VALUENUM,VALUEUOM\n" +
		"9,226707,170,cm\n" +
		"9,226707,180,cm\n" +
		"10,220179,120,mmhg\n"
	adms, stats, err := scanString(t, content, 0)
	require.NoError(t, err)

	items := testItems(t)
	outcome := reconcile.Resolve(adms, items, stats.ItemsObserved)
	require.True(t, outcome.Incomplete.Has("9"))

	report := BuildReport(adms, items, outcome, stats)
	assert.Equal(t, 1, report.ConflictedAdmissions)
	assert.Equal(t, 1, report.IncompleteAdmissions)
	assert.Equal(t, []IncompleteDetail{{AdmissionID: "10", MissingItems: []string{"226707"}}}, report.Incomplete)
	assert.Zero(t, report.CompleteAdmissions)
}

func TestReport_Render(t *testing.T) {
	report, _ := scenarioReport(t)

	var quiet bytes.Buffer
	require.NoError(t, report.Render(&quiet, false))
	assert.Equal(t,
		"1 hadm_ids with conflicts.\n"+
			"Removed 1 hadm_ids missing some measurements.\n"+
			"Scanned 8 records.\n"+
			"1 hadms records have all values for: HEIGHT, NIBP_SYS\n",
		quiet.String())

	var verbose bytes.Buffer
	require.NoError(t, report.Render(&verbose, true))
	out := verbose.String()
	assert.Contains(t, out, "1 hadm_ids with conflicts:\n")
	assert.Contains(t, out, `    Different values for "same" policy.: hadm_id:2          item_id:226707     Item(label="Height", header="HEIGHT", policy="same")`)
	assert.Contains(t, out, "        (\"170\", \"cm\")\n        (\"175\", \"cm\")\n")
	assert.Contains(t, out, "Removed 1 hadm_ids containing conflicting measurements.\n")
}

func TestReport_RenderNothingFound(t *testing.T) {
	r := &Report{Stats: ScanStats{RecordsScanned: 3}, PopulatedHeaders: []string{}}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, true))
	assert.Equal(t, "Scanned 3 records.\n0 hadms records have all values for: \n", buf.String())
}

func TestReport_RenderJSON(t *testing.T) {
	report, _ := scenarioReport(t)
	report.RunID = "run-1"

	var buf bytes.Buffer
	require.NoError(t, report.RenderJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.EqualValues(t, 1, decoded["complete_admissions"])
	assert.Len(t, decoded["conflicts"], 1)

	buf.Reset()
	require.NoError(t, report.WithoutDetails().RenderJSON(&buf))
	decoded = map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.NotContains(t, decoded, "conflicts")
	assert.EqualValues(t, 1, decoded["conflicted_admissions"])
	assert.Len(t, report.Conflicts, 1)
}
