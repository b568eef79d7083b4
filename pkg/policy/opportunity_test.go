package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/constrictdb/constrict/pkg/models"
)

func TestOpportunityFromNullability(t *testing.T) {
	b := NewOpportunityBuilder()
	coord := models.ColumnCoordinate{Schema: "dbo", Table: "T", Column: "C"}

	t.Run("ready decision surfaces nothing", func(t *testing.T) {
		_, surfaced := b.FromNullability(models.NullabilityDecision{
			Coordinate:  coord,
			MakeNotNull: true,
			Rationales:  []string{models.RationaleDataNoNulls, models.RationaleMandatory},
		}, NullabilitySignals{Mandatory: true, DataNoNulls: true}, "")
		assert.False(t, surfaced)
	})

	t.Run("no signals surfaces nothing", func(t *testing.T) {
		_, surfaced := b.FromNullability(models.NullabilityDecision{Coordinate: coord}, NullabilitySignals{}, "")
		assert.False(t, surfaced)
	})

	t.Run("dirty data needs remediation", func(t *testing.T) {
		opp, surfaced := b.FromNullability(models.NullabilityDecision{
			Coordinate: coord,
			Rationales: []string{models.RationaleDataHasNulls, models.RationaleMandatory},
		}, NullabilitySignals{Mandatory: true, DataHasNulls: true}, "UPDATE ...")
		require.True(t, surfaced)
		assert.Equal(t, models.OpportunityNullability, opp.Type)
		assert.Equal(t, models.DispositionNeedsRemediation, opp.Disposition)
		assert.Equal(t, models.RiskModerate, opp.Risk.Level)
		assert.Contains(t, opp.Summary, "dbo.T.C")
		assert.Contains(t, opp.Summary, "NULL rows")
		assert.Equal(t, "UPDATE ...", opp.RemediationSQL)
	})

	t.Run("signal without profile is high risk", func(t *testing.T) {
		opp, surfaced := b.FromNullability(models.NullabilityDecision{
			Coordinate: coord,
			Rationales: []string{models.RationaleMandatory, models.RationaleProfileMissing},
		}, NullabilitySignals{Mandatory: true, ProfileMissing: true}, "")
		require.True(t, surfaced)
		assert.Equal(t, models.RiskHigh, opp.Risk.Level)
		assert.Contains(t, opp.Summary, "never profiled")
	})

	t.Run("mode-blocked mandatory is ready to apply", func(t *testing.T) {
		opp, surfaced := b.FromNullability(models.NullabilityDecision{
			Coordinate: coord,
			Rationales: []string{models.RationaleDataNoNulls, models.RationaleMandatory},
		}, NullabilitySignals{Mandatory: true, DataNoNulls: true}, "")
		require.True(t, surfaced)
		assert.Equal(t, models.DispositionReadyToApply, opp.Disposition)
		assert.Equal(t, models.RiskLow, opp.Risk.Level)
		assert.Empty(t, opp.RemediationSQL)
	})
}

func TestOpportunityFromForeignKey(t *testing.T) {
	b := NewOpportunityBuilder()
	coord := models.ColumnCoordinate{Schema: "dbo", Table: "T", Column: "FK"}

	t.Run("created constraint surfaces nothing", func(t *testing.T) {
		_, surfaced := b.FromForeignKey(models.ForeignKeyDecision{
			Coordinate:       coord,
			CreateConstraint: true,
		}, ForeignKeyFacts{}, "")
		assert.False(t, surfaced)
	})

	t.Run("orphans carry remediation SQL", func(t *testing.T) {
		opp, surfaced := b.FromForeignKey(models.ForeignKeyDecision{
			Coordinate:        coord,
			ScriptWithNoCheck: true,
			Rationales:        []string{models.RationaleForeignKeyNoCheckRecommended, models.RationaleOrphanRowsPresent},
		}, ForeignKeyFacts{HasOrphan: true}, "SELECT ...")
		require.True(t, surfaced)
		assert.Equal(t, models.OpportunityForeignKey, opp.Type)
		assert.Equal(t, models.DispositionNeedsRemediation, opp.Disposition)
		assert.Equal(t, models.RiskHigh, opp.Risk.Level)
		assert.Contains(t, opp.Summary, "orphaned")
		assert.Equal(t, "SELECT ...", opp.RemediationSQL)
	})

	t.Run("ignore rule is moderate", func(t *testing.T) {
		opp, surfaced := b.FromForeignKey(models.ForeignKeyDecision{
			Coordinate: coord,
			Rationales: []string{models.RationaleIgnoreDeleteRule},
		}, ForeignKeyFacts{IgnoreRule: true}, "")
		require.True(t, surfaced)
		assert.Equal(t, models.RiskModerate, opp.Risk.Level)
		assert.Contains(t, opp.Summary, "Ignore delete rule")
		assert.Empty(t, opp.RemediationSQL)
	})
}

func TestOpportunityFromUniqueIndex(t *testing.T) {
	b := NewOpportunityBuilder()
	coord := models.IndexCoordinate{Schema: "dbo", Table: "T", Index: "IX_T"}

	t.Run("clean enforcement surfaces nothing", func(t *testing.T) {
		_, surfaced := b.FromUniqueIndex(models.UniqueIndexDecision{
			Coordinate:    coord,
			EnforceUnique: true,
		}, UniqueIndexFacts{HasEvidence: true}, "")
		assert.False(t, surfaced)
	})

	t.Run("duplicates are high risk with SQL", func(t *testing.T) {
		opp, surfaced := b.FromUniqueIndex(models.UniqueIndexDecision{
			Coordinate: coord,
			Rationales: []string{models.RationaleDuplicatesPresent},
		}, UniqueIndexFacts{HasDuplicates: true, HasEvidence: true}, "SELECT ...")
		require.True(t, surfaced)
		assert.Equal(t, models.OpportunityUniqueIndex, opp.Type)
		assert.Equal(t, models.RiskHigh, opp.Risk.Level)
		assert.Contains(t, opp.Summary, "duplicate key values")
		assert.Equal(t, "SELECT ...", opp.RemediationSQL)
		require.NotNil(t, opp.Index)
		assert.Equal(t, coord, *opp.Index)
	})

	t.Run("missing evidence", func(t *testing.T) {
		opp, surfaced := b.FromUniqueIndex(models.UniqueIndexDecision{
			Coordinate:          coord,
			EnforceUnique:       true,
			RequiresRemediation: true,
			Rationales:          []string{models.RationaleEvidenceMissing, models.RationaleRemediateBeforeTighten},
		}, UniqueIndexFacts{}, "")
		require.True(t, surfaced)
		assert.Equal(t, models.DispositionNeedsRemediation, opp.Disposition)
		assert.Contains(t, opp.Summary, "no duplicate evidence")
	})
}
