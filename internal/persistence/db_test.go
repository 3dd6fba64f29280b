package persistence

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/wuxing/internal/engine"
	g "github.com/talgya/wuxing/internal/ganzhi"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "wuxing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func evaluate(t *testing.T, in g.ChartInput) *engine.Result {
	t.Helper()
	c, err := in.Build()
	require.NoError(t, err)
	res, err := engine.Evaluate(c, engine.Options{})
	require.NoError(t, err)
	return res
}

func TestSaveAndGetEvaluation(t *testing.T) {
	db := openTemp(t)
	res := evaluate(t, g.ChartInput{Year: "丙寅", Month: "己亥", Day: "丁丑", Hour: "丁未", Age: 30})

	id, err := db.SaveEvaluation(res)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := db.GetEvaluation(id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "丙寅 己亥 丁丑 丁未", got.ChartLabel)
	assert.Equal(t, "Ding", got.DayMaster)
	assert.Equal(t, res.DayMaster.Strength.String(), got.Strength)
	assert.Equal(t, res.Gods.Useful.String(), got.Useful)
	assert.False(t, got.Created().IsZero())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(got.Payload(), &payload))
	assert.Contains(t, payload, "interactions")
	assert.Contains(t, payload, "five_gods")

	var chart g.ChartInput
	require.NoError(t, json.Unmarshal([]byte(got.ChartJSON), &chart))
	assert.Equal(t, res.Chart, chart)
}

func TestGetMissingEvaluation(t *testing.T) {
	db := openTemp(t)
	_, err := db.GetEvaluation("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteEvaluation("nope"), ErrNotFound)
}

func TestRecentEvaluations(t *testing.T) {
	db := openTemp(t)
	charts := []g.ChartInput{
		{Year: "甲子", Month: "丙寅", Day: "戊辰", Age: 10},
		{Year: "乙丑", Month: "丁未", Day: "己丑", Age: 40},
		{Year: "庚申", Month: "甲子", Day: "戊辰", Age: 20},
	}
	var ids []string
	for _, in := range charts {
		id, err := db.SaveEvaluation(evaluate(t, in))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	recent, err := db.RecentEvaluations(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)

	n, err := db.CountEvaluations()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, db.DeleteEvaluation(ids[0]))
	n, err = db.CountEvaluations()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTemp(t)

	v, err := db.GetMeta("schema_version")
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, v)

	require.NoError(t, db.SaveMeta("last_evaluation", "abc"))
	require.NoError(t, db.SaveMeta("last_evaluation", "def"))
	v, err = db.GetMeta("last_evaluation")
	require.NoError(t, err)
	assert.Equal(t, "def", v)
}
