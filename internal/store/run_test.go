package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("contracts")
	require.NoError(t, s.WriteRun(ctx, run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, int64(1), run.Seq)

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)

	want := createTestRun("contracts")
	want.ID, want.Seq = "run-1", 1
	// Files come back ordered by path.
	want.Files[0], want.Files[1] = want.Files[1], want.Files[0]
	assert.Equal(t, want, got)
}

func TestWriteRun_AssignsIncreasingSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		run := createTestRun("contracts")
		require.NoError(t, s.WriteRun(ctx, run))
		assert.Equal(t, int64(i), run.Seq)
	}

	last, err := s.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-3", last.ID)
}

func TestWriteRun_KeepsGivenID(t *testing.T) {
	s := createTestStore(t)

	run := createTestRun("contracts")
	run.ID = "0192f3c4-0000-7000-8000-000000000001"
	require.NoError(t, s.WriteRun(context.Background(), run))
	assert.Equal(t, "0192f3c4-0000-7000-8000-000000000001", run.ID)
}

func TestWriteRun_DuplicateIDFails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestRun("contracts")
	first.ID = "same"
	require.NoError(t, s.WriteRun(ctx, first))

	second := createTestRun("contracts")
	second.ID = "same"
	require.Error(t, s.WriteRun(ctx, second))

	// The failed transaction left nothing behind.
	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestLastRun_Empty(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LastRun(context.Background())
	assert.True(t, errors.Is(err, ErrNoRuns))
}

func TestReadRun_Unknown(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNoRuns))
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, createTestRun("contracts")))
	check := createTestRun("other")
	check.Mode = ModeCheck
	check.ExitCode = 0
	check.Diagnostics = nil
	require.NoError(t, s.WriteRun(ctx, check))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []RunSummary{
		{ID: "run-2", Seq: 2, Root: "other", Mode: ModeCheck, ExitCode: 0, Files: 2},
		{ID: "run-1", Seq: 1, Root: "contracts", Mode: ModeBuild, ExitCode: 1, Files: 2, Fatal: 1, Warnings: 1},
	}, runs)
}

func TestPreviousDigests(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	digests, err := s.PreviousDigests(ctx, "contracts")
	require.NoError(t, err)
	assert.Empty(t, digests)

	require.NoError(t, s.WriteRun(ctx, createTestRun("contracts")))
	newer := createTestRun("contracts")
	newer.Files[0].Digest = "d1-changed"
	require.NoError(t, s.WriteRun(ctx, newer))
	require.NoError(t, s.WriteRun(ctx, createTestRun("elsewhere")))

	digests, err = s.PreviousDigests(ctx, "contracts")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"vault.py": "d1-changed", "broken.py": "d2"}, digests)
}

func TestMarshalOptions_Canonical(t *testing.T) {
	text, err := marshalOptions(RunOptions{Out: "build", Strict: true, Jobs: 4, Exclude: []string{"a/*"}})
	require.NoError(t, err)
	assert.Equal(t, `{"exclude":["a/*"],"jobs":4,"out":"build","strict":true}`, text)

	back, err := unmarshalOptions(text)
	require.NoError(t, err)
	assert.Equal(t, RunOptions{Out: "build", Strict: true, Jobs: 4, Exclude: []string{"a/*"}}, back)
}
