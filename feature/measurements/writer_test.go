package measurements

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "HEIGHT.csv.gz")
	header := []string{"HADM_ID", "HEIGHT", "HEIGHT_UNITS"}
	rows := [][]string{{"1", "170", "cm"}, {"2", "16,5", ""}}

	require.NoError(t, WriteTable(path, header, rows))

	assert.Equal(t, append([][]string{header}, rows...), readTable(t, path))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "HEIGHT.csv.gz", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWriteTable_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv.gz")
	require.NoError(t, WriteTable(path, []string{"HADM_ID"}, nil))
	assert.Equal(t, [][]string{{"HADM_ID"}}, readTable(t, path))
}

func TestWriteTable_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv.gz")
	require.NoError(t, WriteTable(path, []string{"A"}, [][]string{{"1"}}))
	require.NoError(t, WriteTable(path, []string{"B"}, [][]string{{"2"}}))
	assert.Equal(t, [][]string{{"B"}, {"2"}}, readTable(t, path))
}

func TestWriteTable_ConcurrentWritersSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "HEIGHT.csv.gz")

	tables := make([][][]string, 8)
	for i := range tables {
		rows := make([][]string, 2000)
		for j := range rows {
			rows[j] = []string{fmt.Sprint(i), fmt.Sprint(j)}
		}
		tables[i] = rows
	}

	var wg sync.WaitGroup
	errs := make([]error, len(tables))
	for i, rows := range tables {
		i, rows := i, rows
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = WriteTable(path, []string{"WRITER", "ROW"}, rows)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	got := readTable(t, path)
	require.Len(t, got, 2001)
	writer := got[1][0]
	for _, row := range got[1:] {
		assert.Equal(t, writer, row[0])
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteTable_FailedRenameLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory cannot be replaced by a file.
	path := filepath.Join(dir, "taken.csv.gz")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "inner"), 0o755))

	err := WriteTable(path, []string{"A"}, [][]string{{"1"}})
	assert.ErrorContains(t, err, "failed to move output into place")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "taken.csv.gz", entries[0].Name())
}
