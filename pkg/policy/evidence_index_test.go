package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/constrictdb/constrict/pkg/apperrors"
	"github.com/constrictdb/constrict/pkg/models"
)

func orderEntity(schema, table string) models.Entity {
	return models.Entity{
		LogicalName: "Order",
		Schema:      schema,
		TableName:   table,
		IsActive:    true,
		Attributes: []models.Attribute{
			{Name: "Id", ColumnName: "ID", Mandatory: true, IsIdentifier: true},
		},
	}
}

func duplicateOrderModel() *models.Model {
	return &models.Model{
		Modules: []models.Module{
			{Name: "Sales", Entities: []models.Entity{orderEntity("dbo", "OSUSR_S_ORDER")}},
			{Name: "Legacy", Entities: []models.Entity{orderEntity("dbo", "OSUSR_L_ORDER")}},
		},
	}
}

func TestBuildEvidenceIndexNilGuards(t *testing.T) {
	model := singleEntityModel("Core", userEntity())
	snapshot := models.NewProfilingSnapshot()
	opts := testOptions(models.ModeEvidenceGated)

	_, err := BuildEvidenceIndex(nil, snapshot, opts, zap.NewNop())
	assert.ErrorIs(t, err, apperrors.ErrNilModel)

	_, err = BuildEvidenceIndex(model, nil, opts, zap.NewNop())
	assert.ErrorIs(t, err, apperrors.ErrNilSnapshot)

	_, err = BuildEvidenceIndex(model, snapshot, nil, zap.NewNop())
	assert.ErrorIs(t, err, apperrors.ErrNilOptions)

	bad := testOptions(models.ModeEvidenceGated)
	bad.NullBudget = 2
	_, err = BuildEvidenceIndex(model, snapshot, bad, zap.NewNop())
	assert.Error(t, err)
}

func TestDuplicateEntityDefaultsDeterministically(t *testing.T) {
	idx := buildIndex(t, duplicateOrderModel(), models.NewProfilingSnapshot(), testOptions(models.ModeEvidenceGated))

	// Lexicographically smallest (module, schema, table) wins: Legacy < Sales.
	ref, ok := idx.ResolveEntity("order")
	require.True(t, ok)
	assert.Equal(t, "Legacy", ref.Module)
	assert.Equal(t, "OSUSR_L_ORDER", ref.Entity.TableName)

	diags := idx.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, models.SeverityWarning, diags[0].Severity)
	assert.Equal(t, models.DiagnosticDuplicateUnresolved, diags[0].Code)
	assert.Equal(t, "Legacy", diags[0].Module)
}

func TestDuplicateEntityResolvedByOverride(t *testing.T) {
	opts := testOptions(models.ModeEvidenceGated)
	opts.NamingOverrides = []models.NamingOverride{{Module: "sales", LogicalName: "ORDER"}}

	idx := buildIndex(t, duplicateOrderModel(), models.NewProfilingSnapshot(), opts)

	ref, ok := idx.ResolveEntity("Order")
	require.True(t, ok)
	assert.Equal(t, "Sales", ref.Module)

	diags := idx.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, models.SeverityInfo, diags[0].Severity)
	assert.Equal(t, models.DiagnosticDuplicateResolved, diags[0].Code)
}

func TestDuplicateEntityConflictingOverrides(t *testing.T) {
	opts := testOptions(models.ModeEvidenceGated)
	opts.NamingOverrides = []models.NamingOverride{
		{Module: "Sales", LogicalName: "Order"},
		{Module: "Legacy", LogicalName: "Order"},
	}

	idx := buildIndex(t, duplicateOrderModel(), models.NewProfilingSnapshot(), opts)

	ref, ok := idx.ResolveEntity("Order")
	require.True(t, ok)
	assert.Equal(t, "Legacy", ref.Module)

	diags := idx.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, models.SeverityWarning, diags[0].Severity)
	assert.Equal(t, models.DiagnosticDuplicateConflict, diags[0].Code)
}

func TestDuplicateDiagnosticIDIsStable(t *testing.T) {
	idx1 := buildIndex(t, duplicateOrderModel(), models.NewProfilingSnapshot(), testOptions(models.ModeEvidenceGated))
	idx2 := buildIndex(t, duplicateOrderModel(), models.NewProfilingSnapshot(), testOptions(models.ModeEvidenceGated))

	require.Len(t, idx1.Diagnostics(), 1)
	require.Len(t, idx2.Diagnostics(), 1)
	assert.Equal(t, idx1.Diagnostics()[0].ID, idx2.Diagnostics()[0].ID)
}

func TestSingletonEntityHasNoDiagnostic(t *testing.T) {
	idx := buildIndex(t, singleEntityModel("Core", userEntity()), models.NewProfilingSnapshot(), testOptions(models.ModeEvidenceGated))
	assert.Empty(t, idx.Diagnostics())
}

func TestAggregatedUniqueEvidenceSets(t *testing.T) {
	snapshot := models.NewProfilingSnapshot()
	snapshot.AddUniqueCandidate(models.UniqueCandidateProfile{
		Coordinate: models.ColumnCoordinate{Schema: "dbo", Table: "T", Column: "A"},
	})
	snapshot.AddUniqueCandidate(models.UniqueCandidateProfile{
		Coordinate:   models.ColumnCoordinate{Schema: "dbo", Table: "T", Column: "B"},
		HasDuplicate: true,
	})
	snapshot.AddCompositeUnique(models.CompositeUniqueCandidateProfile{
		Schema: "dbo", Table: "T", Columns: []string{"C", "D"},
	})
	snapshot.AddCompositeUnique(models.CompositeUniqueCandidateProfile{
		Schema: "dbo", Table: "T", Columns: []string{"E", "F"}, HasDuplicate: true,
	})

	idx := buildIndex(t, singleEntityModel("Core", userEntity()), snapshot, testOptions(models.ModeEvidenceGated))

	coord := func(col string) models.ColumnCoordinate {
		return models.ColumnCoordinate{Schema: "dbo", Table: "T", Column: col}
	}

	assert.True(t, idx.SingleColumnClean(coord("a")))
	assert.False(t, idx.SingleColumnDuplicate(coord("A")))
	assert.True(t, idx.SingleColumnDuplicate(coord("B")))
	assert.True(t, idx.CompositeClean(coord("C")))
	assert.True(t, idx.CompositeClean(coord("D")))
	assert.True(t, idx.CompositeDuplicate(coord("E")))
	assert.True(t, idx.CompositeDuplicate(coord("F")))
	assert.False(t, idx.CompositeDuplicate(coord("C")))
}

func TestIdentityFallsBackToCoordinate(t *testing.T) {
	idx := buildIndex(t, singleEntityModel("Core", userEntity()), models.NewProfilingSnapshot(), testOptions(models.ModeEvidenceGated))

	known := idx.Identity(models.ColumnCoordinate{Schema: "dbo", Table: "OSUSR_U_USER", Column: "EMAIL"})
	assert.Equal(t, "Core", known.Module)
	assert.Equal(t, "User", known.Entity)
	assert.Equal(t, "Email", known.Attribute)

	unknown := idx.Identity(models.ColumnCoordinate{Schema: "dbo", Table: "GHOST", Column: "X"})
	assert.Empty(t, unknown.Module)
	assert.Equal(t, "GHOST", unknown.Coordinate.Table)
}
