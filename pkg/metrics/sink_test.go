package metrics

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRecords(t *testing.T, path string) []Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestJSONLSinkUpdateThenSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Update(
		map[string]int{"num_iterations": 0},
		map[string]float64{"val_loss": 10, "ratio_proven": 1.0 / 3.0},
	))

	// Nothing on disk until Save.
	assert.Empty(t, readRecords(t, path))

	require.NoError(t, sink.Save())

	records := readRecords(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].Step["num_iterations"])
	assert.Equal(t, 10.0, records[0].Values["val_loss"])
	assert.InDelta(t, 1.0/3.0, records[0].Values["ratio_proven"], 1e-9)
}

func TestJSONLSinkAppendsAcrossRounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	defer sink.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, sink.Update(
			map[string]int{"num_iterations": i},
			map[string]float64{"final_goals_proven": float64(i)},
		))
		require.NoError(t, sink.Save())
	}

	records := readRecords(t, path)
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, i, rec.Step["num_iterations"])
	}
}

func TestJSONLSinkSaveIsIdempotentOnEmptyStage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Update(map[string]int{"num_iterations": 1}, map[string]float64{"val_loss": 2}))
	require.NoError(t, sink.Save())
	require.NoError(t, sink.Save())

	assert.Len(t, readRecords(t, path), 1)
}

func TestSQLiteSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Update(
		map[string]int{"num_iterations": 2},
		map[string]float64{"val_loss": 1.5, "mean_hard_sol_log_probs": -1.5},
	))
	require.NoError(t, sink.Save())

	var count int
	require.NoError(t, sink.db.QueryRow(
		"SELECT COUNT(*) FROM metrics WHERE iteration = 2").Scan(&count))
	assert.Equal(t, 2, count)

	var valLoss float64
	require.NoError(t, sink.db.QueryRow(
		"SELECT value FROM metrics WHERE iteration = 2 AND name = 'val_loss'").Scan(&valLoss))
	assert.Equal(t, 1.5, valLoss)
}
