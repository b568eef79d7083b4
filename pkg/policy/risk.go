package policy

import "github.com/constrictdb/constrict/pkg/models"

// RiskFacts are the contributing facts a decision's risk is derived from.
// The classifier is a pure function of these; it never consults the index.
type RiskFacts struct {
	HasOrphan           bool
	IgnoreRule          bool
	CrossSchemaBlocked  bool
	CrossCatalogBlocked bool
	HasDuplicates       bool
	PolicyDisabled      bool
	HasEvidence         bool
	PhysicalReality     bool

	// ProfileMissingWithSignal is set when a tightening signal fired but no
	// profile exists to confirm it.
	ProfileMissingWithSignal bool

	RequiresRemediation bool
}

// ClassifyRisk maps a decision's facts to a qualitative risk. Contradicting
// evidence (orphans, duplicates, a fired signal without a profile) is High;
// policy blockers and remediation-needing decisions are Moderate; everything
// else is Low.
func ClassifyRisk(facts RiskFacts) models.ChangeRisk {
	if facts.HasOrphan || facts.HasDuplicates || facts.ProfileMissingWithSignal {
		return models.ChangeRisk{
			Level:       models.RiskHigh,
			Label:       "High",
			Description: "profiled evidence contradicts the change; applying it without remediation will fail or mask data problems",
		}
	}

	if facts.PolicyDisabled || facts.IgnoreRule || facts.CrossSchemaBlocked || facts.CrossCatalogBlocked {
		return models.ChangeRisk{
			Level:       models.RiskModerate,
			Label:       "Moderate",
			Description: "blocked by policy or configuration; the data itself shows no contradiction",
		}
	}

	if facts.RequiresRemediation {
		return models.ChangeRisk{
			Level:       models.RiskModerate,
			Label:       "Moderate",
			Description: "applying the change requires data remediation first",
		}
	}

	return models.ChangeRisk{
		Level:       models.RiskLow,
		Label:       "Low",
		Description: "evidence and policy agree; the change can be applied directly",
	}
}
