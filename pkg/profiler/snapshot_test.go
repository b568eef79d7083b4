package profiler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/constrictdb/constrict/pkg/apperrors"
	"github.com/constrictdb/constrict/pkg/models"
)

func TestSnapshotRoundTrip(t *testing.T) {
	snapshot := models.NewProfilingSnapshot()
	snapshot.AddColumn(models.ColumnProfile{
		Coordinate:    models.ColumnCoordinate{Schema: "dbo", Table: "OSUSR_U_USER", Column: "EMAIL"},
		RowCount:      500,
		NullCount:     3,
		NullRowSample: []string{"17", "42"},
	})
	snapshot.AddForeignKey(models.ForeignKeyReality{
		Coordinate: models.ColumnCoordinate{Schema: "dbo", Table: "OSUSR_O_ORDER", Column: "USER_ID"},
		HasOrphan:  true,
	})
	snapshot.AddCompositeUnique(models.CompositeUniqueCandidateProfile{
		Schema: "dbo", Table: "OSUSR_A_ACCOUNT", Columns: []string{"EMAIL", "TENANT_ID"},
	})

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, SaveSnapshot(path, snapshot))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)

	col, ok := loaded.Column(models.ColumnCoordinate{Schema: "DBO", Table: "osusr_u_user", Column: "email"})
	require.True(t, ok)
	assert.Equal(t, int64(500), col.RowCount)
	assert.Equal(t, []string{"17", "42"}, col.NullRowSample)

	fk, ok := loaded.ForeignKey(models.ColumnCoordinate{Schema: "dbo", Table: "OSUSR_O_ORDER", Column: "USER_ID"})
	require.True(t, ok)
	assert.True(t, fk.HasOrphan)

	// Composite lookups stay order-independent after the round trip.
	_, ok = loaded.CompositeUnique("dbo", "OSUSR_A_ACCOUNT", []string{"TENANT_ID", "EMAIL"})
	assert.True(t, ok)
}

func TestLoadSnapshotMissing(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotFound)
}

func TestSaveSnapshotNil(t *testing.T) {
	err := SaveSnapshot(filepath.Join(t.TempDir(), "x.json"), nil)
	assert.ErrorIs(t, err, apperrors.ErrNilSnapshot)
}
