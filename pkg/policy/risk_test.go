package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/constrictdb/constrict/pkg/models"
)

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name  string
		facts RiskFacts
		want  models.RiskLevel
	}{
		{"no facts", RiskFacts{}, models.RiskLow},
		{"orphans", RiskFacts{HasOrphan: true}, models.RiskHigh},
		{"duplicates", RiskFacts{HasDuplicates: true}, models.RiskHigh},
		{"signal without profile", RiskFacts{ProfileMissingWithSignal: true}, models.RiskHigh},
		{"policy disabled", RiskFacts{PolicyDisabled: true}, models.RiskModerate},
		{"ignore rule", RiskFacts{IgnoreRule: true}, models.RiskModerate},
		{"cross schema", RiskFacts{CrossSchemaBlocked: true}, models.RiskModerate},
		{"cross catalog", RiskFacts{CrossCatalogBlocked: true}, models.RiskModerate},
		{"remediation needed", RiskFacts{RequiresRemediation: true}, models.RiskModerate},
		{"clean evidence", RiskFacts{HasEvidence: true, PhysicalReality: true}, models.RiskLow},
		{"contradiction outranks policy", RiskFacts{HasDuplicates: true, PolicyDisabled: true}, models.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := ClassifyRisk(tt.facts)
			assert.Equal(t, tt.want, risk.Level)
			assert.NotEmpty(t, risk.Label)
			assert.NotEmpty(t, risk.Description)
		})
	}
}
