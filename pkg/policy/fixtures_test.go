package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/constrictdb/constrict/pkg/models"
)

func testOptions(mode models.PolicyMode) *models.TighteningOptions {
	opts := models.DefaultTighteningOptions()
	opts.Mode = mode
	return &opts
}

func singleEntityModel(module string, entity models.Entity) *models.Model {
	return &models.Model{
		Modules: []models.Module{
			{Name: module, Entities: []models.Entity{entity}},
		},
	}
}

func buildIndex(t *testing.T, model *models.Model, snapshot *models.ProfilingSnapshot, opts *models.TighteningOptions) *EvidenceIndex {
	t.Helper()
	idx, err := BuildEvidenceIndex(model, snapshot, opts, zap.NewNop())
	require.NoError(t, err)
	return idx
}

// userEntity is the fixture most nullability tests share: one identifier, one
// mandatory column with a declared unique index.
func userEntity() models.Entity {
	return models.Entity{
		LogicalName: "User",
		Schema:      "dbo",
		TableName:   "OSUSR_U_USER",
		IsActive:    true,
		Attributes: []models.Attribute{
			{Name: "Id", ColumnName: "ID", Mandatory: true, IsIdentifier: true},
			{Name: "Email", ColumnName: "EMAIL", Mandatory: true},
			{Name: "Nickname", ColumnName: "NICKNAME"},
		},
		Indexes: []models.EntityIndex{
			{Name: "IX_USER_EMAIL", Unique: true, KeyColumns: []string{"EMAIL"}},
		},
	}
}

func cleanColumn(schema, table, column string, rows int64) models.ColumnProfile {
	return models.ColumnProfile{
		Coordinate: models.ColumnCoordinate{Schema: schema, Table: table, Column: column},
		RowCount:   rows,
	}
}

func dirtyColumn(schema, table, column string, rows, nulls int64, sample ...string) models.ColumnProfile {
	return models.ColumnProfile{
		Coordinate:    models.ColumnCoordinate{Schema: schema, Table: table, Column: column},
		RowCount:      rows,
		NullCount:     nulls,
		NullRowSample: sample,
	}
}
