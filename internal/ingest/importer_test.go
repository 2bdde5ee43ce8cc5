package ingest

import (
	"context"
	"testing"

	"psgc-api/internal/psgc"
	"psgc-api/internal/sheet"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportSheetNotFound(t *testing.T) {
	st := newTestStore(t)
	src := sheet.NewMemory().Add("Other", sampleRows())

	res := NewImporter(st, "").Import(context.Background(), src, Meta{Filename: "x.xlsx"})
	assert.False(t, res.Success)
	assert.Equal(t, MessageSheetNotFound, res.Message)
	assert.Equal(t, PhaseFailed, res.Phase)
	assert.Zero(t, res.Created.Total())

	vs, err := st.Versions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestImportWritesHierarchy(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	src := sheet.NewMemory().Add("psgc", sampleRows())

	res := NewImporter(st, "PSGC").Import(ctx, src, Meta{Filename: "PSGC-2Q-2024-Publication-Datafile.xlsx"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, PhaseDone, res.Phase)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "2Q", res.Quarter)
	assert.Equal(t, "2024", res.Year)
	assert.Equal(t, 8, res.RowsRead)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Rejected)
	// 2 regions; Ilocos Norte + Metro Manila + elevated Manila; Laoag + Manila; 2 barangays
	assert.Equal(t, psgc.Counts{Regions: 2, Provinces: 3, CitiesMunicipalities: 2, Barangays: 2}, res.Created)

	v, err := st.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.SnapshotID, v.ID)
	require.NotNil(t, v.Quarter)
	assert.Equal(t, "2Q", *v.Quarter)
}

func TestImportRejectsMalformedCodesAndContinues(t *testing.T) {
	rows := append(sampleRows(),
		[]string{"12AB", "Broken", "", "Bgy", "", ""},
		[]string{"0128010002", "Santa Joaquina", "", "Bgy", "", ""},
	)
	st := newTestStore(t)
	res := NewImporter(st, "").Import(context.Background(), sheet.NewMemory().Add("PSGC", rows), Meta{})
	require.True(t, res.Success, res.Message)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 10, res.Rejected[0].Row)
	assert.Equal(t, "12AB", res.Rejected[0].Code)
	assert.Equal(t, 3, res.Created.Barangays)
	assert.Empty(t, res.Quarter)
}

func TestImportSkipsUnknownLevels(t *testing.T) {
	rows := append(sampleRows(), []string{"0128010003", "Somewhere", "", "Purok", "", ""})
	st := newTestStore(t)
	res := NewImporter(st, "").Import(context.Background(), sheet.NewMemory().Add("PSGC", rows), Meta{})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 2, res.Created.Barangays)
}

func TestReimportIntoSnapshotCreatesNothing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	im := NewImporter(st, "")

	first := im.Import(ctx, sheet.NewMemory().Add("PSGC", sampleRows()), Meta{})
	require.True(t, first.Success, first.Message)
	before, err := st.RowCounts(ctx, first.SnapshotID)
	require.NoError(t, err)

	again := im.Import(ctx, sheet.NewMemory().Add("PSGC", sampleRows()), Meta{SnapshotID: first.SnapshotID})
	require.True(t, again.Success, again.Message)
	assert.Equal(t, first.SnapshotID, again.SnapshotID)
	assert.Zero(t, again.Created.Total())

	after, err := st.RowCounts(ctx, first.SnapshotID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

type failingWriter struct{}

func (failingWriter) WriteSnapshot(context.Context, *psgc.Plan, psgc.SnapshotMeta) (psgc.WriteResult, error) {
	return psgc.WriteResult{}, errors.New("disk full")
}

func TestImportWriterFailure(t *testing.T) {
	res := NewImporter(failingWriter{}, "").Import(context.Background(), sheet.NewMemory().Add("PSGC", sampleRows()), Meta{})
	assert.False(t, res.Success)
	assert.Equal(t, PhaseFailed, res.Phase)
	assert.Contains(t, res.Message, "disk full")
	assert.Zero(t, res.SnapshotID)
	assert.Zero(t, res.Created.Total())
}

func TestImportCancelledBeforePersisting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := newTestStore(t)
	res := NewImporter(st, "").Import(ctx, sheet.NewMemory().Add("PSGC", sampleRows()), Meta{})
	assert.False(t, res.Success)
	assert.Equal(t, "import cancelled", res.Message)
}
