package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	runs := []*Run{
		{Project: "aixcc/jvm/mock-java", RTSTool: "jcgeks", StartedAt: base,
			BuildSpeedup: 12.5, TestSpeedup: 4.0, NumPovs: 2, SummaryPath: "/logs/a/summary.txt"},
		{Project: "aixcc/c/mock-c", RTSTool: "none", StartedAt: base.Add(time.Hour),
			BuildSpeedup: 3.0, TestSpeedup: 1.0, NumPovs: 1, SummaryPath: "/logs/b/summary.txt"},
		{Project: "aixcc/jvm/mock-java", RTSTool: "ekstazi", StartedAt: base.Add(2 * time.Hour),
			BuildSpeedup: 11.0, TestSpeedup: 9.0, NumPovs: 2, SummaryPath: "/logs/c/summary.txt"},
	}
	for _, run := range runs {
		require.NoError(t, store.Record(run))
		assert.NotEmpty(t, run.ID)
	}

	listed, err := store.List("", 0)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	// Newest first.
	assert.Equal(t, "ekstazi", listed[0].RTSTool)
	assert.Equal(t, "none", listed[1].RTSTool)
	assert.Equal(t, "jcgeks", listed[2].RTSTool)
	assert.Equal(t, base.Add(2*time.Hour), listed[0].StartedAt)
	assert.InDelta(t, 11.0, listed[0].BuildSpeedup, 0.001)
}

func TestList_ProjectFilter(t *testing.T) {
	store := openStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Record(&Run{Project: "aixcc/jvm/mock-java", RTSTool: "jcgeks", StartedAt: now}))
	require.NoError(t, store.Record(&Run{Project: "aixcc/c/mock-c", RTSTool: "none", StartedAt: now}))

	listed, err := store.List("aixcc/c/mock-c", 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "aixcc/c/mock-c", listed[0].Project)
}

func TestList_Limit(t *testing.T) {
	store := openStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(&Run{
			Project:   "aixcc/jvm/mock-java",
			RTSTool:   "jcgeks",
			StartedAt: now.Add(time.Duration(i) * time.Minute),
		}))
	}

	listed, err := store.List("", 2)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, now.Add(4*time.Minute), listed[0].StartedAt)
}

func TestList_Empty(t *testing.T) {
	store := openStore(t)

	listed, err := store.List("", 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
