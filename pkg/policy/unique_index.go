package policy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/constrictdb/constrict/pkg/models"
)

// uniqueScenario classifies the evidence situation of one declared unique
// index. The outcome matrix is an exhaustive switch per mode over these six
// values, so a missing case fails compilation review instead of a runtime
// lookup.
type uniqueScenario int

const (
	scenarioPolicyDisabled uniqueScenario = iota
	scenarioDuplicatesWithPhysicalReality
	scenarioDuplicatesWithoutPhysicalReality
	scenarioPhysicalReality
	scenarioCleanWithEvidence
	scenarioCleanWithoutEvidence
)

func (s uniqueScenario) String() string {
	switch s {
	case scenarioPolicyDisabled:
		return "policy_disabled"
	case scenarioDuplicatesWithPhysicalReality:
		return "duplicates_with_physical_reality"
	case scenarioDuplicatesWithoutPhysicalReality:
		return "duplicates_without_physical_reality"
	case scenarioPhysicalReality:
		return "physical_reality"
	case scenarioCleanWithEvidence:
		return "clean_with_evidence"
	case scenarioCleanWithoutEvidence:
		return "clean_without_evidence"
	default:
		return fmt.Sprintf("unique_scenario(%d)", int(s))
	}
}

// remediationDirective says when an enforcement outcome needs remediation.
type remediationDirective int

const (
	remediateNever remediationDirective = iota
	remediateAlways
	remediateWhenEvidenceMissing
)

// UniqueIndexFacts are the evidence inputs behind one unique-index decision.
type UniqueIndexFacts struct {
	MultiColumn     bool
	PolicyDisabled  bool
	PhysicalReality bool
	HasDuplicates   bool
	HasEvidence     bool
}

// UniqueIndexStrategy decides, per declared unique index, whether the UNIQUE
// constraint should be enforced. Only key columns participate; INCLUDE-only
// columns never affect the outcome.
type UniqueIndexStrategy struct {
	index  *EvidenceIndex
	logger *zap.Logger
}

// NewUniqueIndexStrategy creates a strategy reading the given index.
func NewUniqueIndexStrategy(index *EvidenceIndex, logger *zap.Logger) *UniqueIndexStrategy {
	return &UniqueIndexStrategy{
		index:  index,
		logger: logger.Named("unique-index-strategy"),
	}
}

// Evaluate produces the enforcement decision for one declared index. The
// third return is false for non-unique or keyless indexes, which are out of
// scope.
func (s *UniqueIndexStrategy) Evaluate(owner EntityRef, entityIndex models.EntityIndex) (models.UniqueIndexDecision, UniqueIndexFacts, bool) {
	if !entityIndex.Unique || len(entityIndex.KeyColumns) == 0 {
		return models.UniqueIndexDecision{}, UniqueIndexFacts{}, false
	}

	coord := owner.Entity.IndexCoordinate(entityIndex)
	keyCoords := make([]models.ColumnCoordinate, len(entityIndex.KeyColumns))
	for i, col := range entityIndex.KeyColumns {
		keyCoords[i] = models.ColumnCoordinate{Schema: owner.Entity.Schema, Table: owner.Entity.TableName, Column: col}
	}

	facts := s.collectFacts(owner, entityIndex, keyCoords)
	scenario := classifyScenario(facts)
	enforce, directive := s.outcome(s.index.Options().Mode, scenario)

	decision := models.UniqueIndexDecision{
		Coordinate:    coord,
		EnforceUnique: enforce,
		KeyColumns:    keyCoords,
	}
	switch directive {
	case remediateAlways:
		decision.RequiresRemediation = true
	case remediateWhenEvidenceMissing:
		decision.RequiresRemediation = !facts.HasEvidence
	}

	rationales := models.NewRationaleSet()
	if facts.PolicyDisabled {
		rationales.Add(models.RationaleUniquePolicyDisabled)
	}
	if facts.HasDuplicates {
		rationales.Add(models.RationaleDuplicatesPresent)
	}
	if facts.PhysicalReality {
		rationales.Add(models.RationalePhysicalUniqueReality)
	}
	if facts.HasEvidence && !facts.HasDuplicates {
		rationales.Add(models.RationaleCleanEvidence)
	}
	if !facts.HasEvidence && !facts.PolicyDisabled {
		rationales.Add(models.RationaleEvidenceMissing)
	}
	if enforce && !facts.PhysicalReality {
		rationales.Add(models.RationalePolicyEnforceUnique)
	}
	if decision.RequiresRemediation {
		rationales.Add(models.RationaleRemediateBeforeTighten)
	}
	decision.Rationales = rationales.Sorted()

	s.logger.Debug("Unique index decision",
		zap.String("index", coord.String()),
		zap.String("scenario", scenario.String()),
		zap.Bool("enforce", decision.EnforceUnique),
		zap.Bool("requires_remediation", decision.RequiresRemediation))

	return decision, facts, true
}

// collectFacts derives physical reality, the policy toggle, and the evidence
// classification for the index's key columns.
func (s *UniqueIndexStrategy) collectFacts(owner EntityRef, entityIndex models.EntityIndex, keyCoords []models.ColumnCoordinate) UniqueIndexFacts {
	facts := UniqueIndexFacts{MultiColumn: len(keyCoords) > 1}

	opts := s.index.Options().Uniqueness
	if facts.MultiColumn {
		facts.PolicyDisabled = !opts.EnforceMultiColumn
	} else {
		facts.PolicyDisabled = !opts.EnforceSingleColumn
	}

	// Physical uniqueness holds only when every key column's profile
	// reports it; an unprofiled key column leaves it unknown.
	facts.PhysicalReality = true
	for _, coord := range keyCoords {
		profile, ok := s.index.ColumnProfile(coord)
		if !ok || !profile.IsUniqueKey {
			facts.PhysicalReality = false
			break
		}
	}

	if facts.MultiColumn {
		if profile, ok := s.index.CompositeUnique(owner.Entity.Schema, owner.Entity.TableName, entityIndex.KeyColumns); ok {
			facts.HasEvidence = true
			facts.HasDuplicates = profile.HasDuplicate
			return facts
		}
		// Fallback to aggregated composite sets: any duplicate touching a
		// key column is disqualifying; clean requires every key column.
		for _, coord := range keyCoords {
			if s.index.CompositeDuplicate(coord) {
				facts.HasEvidence = true
				facts.HasDuplicates = true
				return facts
			}
		}
		clean := true
		for _, coord := range keyCoords {
			if !s.index.CompositeClean(coord) {
				clean = false
				break
			}
		}
		if clean {
			facts.HasEvidence = true
		}
		return facts
	}

	coord := keyCoords[0]
	if profile, ok := s.index.UniqueCandidate(coord); ok {
		facts.HasEvidence = true
		facts.HasDuplicates = profile.HasDuplicate
		return facts
	}
	if s.index.SingleColumnDuplicate(coord) {
		facts.HasEvidence = true
		facts.HasDuplicates = true
		return facts
	}
	if s.index.SingleColumnClean(coord) {
		facts.HasEvidence = true
	}
	return facts
}

func classifyScenario(facts UniqueIndexFacts) uniqueScenario {
	switch {
	case facts.PolicyDisabled:
		return scenarioPolicyDisabled
	case facts.HasDuplicates && facts.PhysicalReality:
		return scenarioDuplicatesWithPhysicalReality
	case facts.HasDuplicates:
		return scenarioDuplicatesWithoutPhysicalReality
	case facts.PhysicalReality:
		return scenarioPhysicalReality
	case facts.HasEvidence:
		return scenarioCleanWithEvidence
	default:
		return scenarioCleanWithoutEvidence
	}
}

// outcome is the (mode, scenario) matrix. Cautious never enforces over
// duplicates unless the index is already physically unique; evidence-gated
// additionally enforces on clean evidence; aggressive enforces everywhere
// except policy disablement, remediating when duplicates exist or evidence
// is inconclusive without physical reality.
func (s *UniqueIndexStrategy) outcome(mode models.PolicyMode, scenario uniqueScenario) (bool, remediationDirective) {
	switch mode {
	case models.ModeCautious:
		switch scenario {
		case scenarioPolicyDisabled:
			return false, remediateNever
		case scenarioDuplicatesWithPhysicalReality:
			return true, remediateNever
		case scenarioDuplicatesWithoutPhysicalReality:
			return false, remediateNever
		case scenarioPhysicalReality:
			return true, remediateNever
		case scenarioCleanWithEvidence:
			return false, remediateNever
		case scenarioCleanWithoutEvidence:
			return false, remediateNever
		}

	case models.ModeEvidenceGated:
		switch scenario {
		case scenarioPolicyDisabled:
			return false, remediateNever
		case scenarioDuplicatesWithPhysicalReality:
			return true, remediateNever
		case scenarioDuplicatesWithoutPhysicalReality:
			return false, remediateNever
		case scenarioPhysicalReality:
			return true, remediateNever
		case scenarioCleanWithEvidence:
			return true, remediateNever
		case scenarioCleanWithoutEvidence:
			return false, remediateNever
		}

	case models.ModeAggressive:
		switch scenario {
		case scenarioPolicyDisabled:
			return false, remediateNever
		case scenarioDuplicatesWithPhysicalReality:
			return true, remediateAlways
		case scenarioDuplicatesWithoutPhysicalReality:
			return true, remediateAlways
		case scenarioPhysicalReality:
			return true, remediateNever
		case scenarioCleanWithEvidence:
			return true, remediateNever
		case scenarioCleanWithoutEvidence:
			return true, remediateWhenEvidenceMissing
		}
	}

	return false, remediateNever
}
