package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/constrictdb/constrict/pkg/models"
)

func reportWith(nullability map[string]int, counts models.ReportCounts) *models.PolicyDecisionReport {
	if nullability == nil {
		nullability = map[string]int{}
	}
	return &models.PolicyDecisionReport{
		Mode:                  models.ModeEvidenceGated,
		Counts:                counts,
		NullabilityRationales: nullability,
	}
}

func TestSummaryEmptyReport(t *testing.T) {
	f := NewSummaryFormatter()
	out := f.Format(reportWith(nil, models.ReportCounts{}), 0, 0)
	assert.Equal(t, []string{"no tightening decisions apply to this model"}, out)
}

func TestSummaryOrderedByCountThenPriority(t *testing.T) {
	f := NewSummaryFormatter()
	report := reportWith(map[string]int{
		models.RationaleMandatory:  3,
		models.RationalePrimaryKey: 7,
	}, models.ReportCounts{ForeignKeysCreated: 3})

	out := f.Format(report, 0, 0)
	require.Len(t, out, 3)

	// Highest count first; mandatory outranks foreign keys on the tie.
	assert.Equal(t, "7 columns are primary keys and stay NOT NULL", out[0])
	assert.Equal(t, "3 columns are mandatory in the logical model", out[1])
	assert.Equal(t, "3 foreign key constraints will be created", out[2])
}

func TestSummarySingularForms(t *testing.T) {
	f := NewSummaryFormatter()
	report := reportWith(map[string]int{models.RationaleMandatory: 1}, models.ReportCounts{ForeignKeysCreated: 1, UniqueIndexesEnforced: 1})

	out := f.Format(report, 0, 0)
	assert.Contains(t, out, "1 column is mandatory in the logical model")
	assert.Contains(t, out, "1 foreign key constraint will be created")
	assert.Contains(t, out, "1 unique index will be enforced")
}

func TestSummaryContradictionAlertLeads(t *testing.T) {
	f := NewSummaryFormatter()
	report := reportWith(map[string]int{models.RationalePrimaryKey: 50}, models.ReportCounts{})

	out := f.Format(report, 0, 2)
	require.NotEmpty(t, out)
	assert.Equal(t, "attention: 2 mandatory columns hold NULL rows despite the model's mandatory flag; remediate before tightening", out[0])

	out = f.Format(report, 1, 0)
	assert.Equal(t, "attention: 1 reference column has orphaned rows; constraints cannot be trusted until remediated", out[0])

	out = f.Format(report, 1, 1)
	assert.Equal(t, "attention: 1 mandatory column holds NULL rows and 1 reference column has orphaned rows; remediate before tightening", out[0])
}

func TestSummaryZeroCountsSkipped(t *testing.T) {
	f := NewSummaryFormatter()
	report := reportWith(map[string]int{models.RationalePhysicalNotNull: 2}, models.ReportCounts{})

	out := f.Format(report, 0, 0)
	assert.Equal(t, []string{"2 columns are already NOT NULL on disk"}, out)
}

func TestSummaryDeterministic(t *testing.T) {
	f := NewSummaryFormatter()
	report := reportWith(map[string]int{
		models.RationaleMandatory:       4,
		models.RationalePrimaryKey:      4,
		models.RationalePhysicalNotNull: 4,
	}, models.ReportCounts{ForeignKeysCreated: 4, UniqueIndexesEnforced: 4, RemediationRequired: 4})

	first := f.Format(report, 1, 1)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, f.Format(report, 1, 1))
	}
	// All tied at 4: category priority decides.
	assert.Equal(t, "4 columns are mandatory in the logical model", first[1])
	assert.Equal(t, "4 foreign key constraints will be created", first[2])
	assert.Equal(t, "4 columns are primary keys and stay NOT NULL", first[3])
	assert.Equal(t, "4 unique indexes will be enforced", first[4])
	assert.Equal(t, "4 columns are already NOT NULL on disk", first[5])
	assert.Equal(t, "4 decisions require data remediation before applying", first[6])
}
