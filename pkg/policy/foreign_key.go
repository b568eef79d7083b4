package policy

import (
	"strings"

	"go.uber.org/zap"

	"github.com/constrictdb/constrict/pkg/models"
)

// ForeignKeyEvaluator decides, per reference column, whether a FOREIGN KEY
// constraint should be created. Scenarios are evaluated in strict priority
// order and the first match wins:
//
//  1. delete rule is Ignore (or missing and configured as Ignore)
//  2. the database already enforces the constraint
//  3. profiling reports orphaned child rows
//  4. creation disabled by policy
//  5. target unresolved or schema/catalog boundary not allowed
//  6. create under policy
//
// When creation is blocked only by data (orphans) or an ignore rule, and the
// constraint would otherwise be creatable, the evaluator recommends scripting
// it WITH NOCHECK so the generated schema stays aligned with the logical
// model while remediation proceeds.
type ForeignKeyEvaluator struct {
	index  *EvidenceIndex
	logger *zap.Logger
}

// NewForeignKeyEvaluator creates an evaluator reading the given index.
func NewForeignKeyEvaluator(index *EvidenceIndex, logger *zap.Logger) *ForeignKeyEvaluator {
	return &ForeignKeyEvaluator{
		index:  index,
		logger: logger.Named("fk-evaluator"),
	}
}

// ForeignKeyFacts are the inputs that contributed to one FK decision,
// consumed by risk classification and opportunity synthesis.
type ForeignKeyFacts struct {
	HasOrphan           bool
	IgnoreRule          bool
	ConstraintExists    bool
	PolicyDisabled      bool
	TargetUnresolved    bool
	CrossSchemaBlocked  bool
	CrossCatalogBlocked bool
	RealityProfiled     bool
}

// Evaluate produces the constraint decision for one attribute. The second
// return is false when the attribute is not a reference, in which case no
// decision applies.
func (e *ForeignKeyEvaluator) Evaluate(owner EntityRef, attr models.Attribute) (models.ForeignKeyDecision, ForeignKeyFacts, bool) {
	if attr.Reference == nil {
		return models.ForeignKeyDecision{}, ForeignKeyFacts{}, false
	}

	coord := owner.Entity.ColumnCoordinate(attr)
	opts := e.index.Options().ForeignKeys
	rationales := models.NewRationaleSet()

	reality, realityProfiled := e.index.ForeignKeyReality(coord)
	facts := ForeignKeyFacts{
		HasOrphan:        realityProfiled && reality.HasOrphan,
		IgnoreRule:       e.ignoreRule(attr.Reference),
		ConstraintExists: realityProfiled && reality.ConstraintExists,
		PolicyDisabled:   !opts.EnableCreation,
		RealityProfiled:  realityProfiled,
	}

	target, resolved := e.index.ResolveEntity(attr.Reference.TargetEntity)
	facts.TargetUnresolved = !resolved
	if resolved {
		facts.CrossSchemaBlocked = crossSchema(owner.Entity, target.Entity) && !opts.AllowCrossSchema
		facts.CrossCatalogBlocked = crossCatalog(owner.Entity, target.Entity) && !opts.AllowCrossCatalog
	}

	// creatable means nothing but data or the delete rule stands in the way.
	creatable := !facts.PolicyDisabled && resolved && !facts.CrossSchemaBlocked && !facts.CrossCatalogBlocked

	decision := models.ForeignKeyDecision{Coordinate: coord}

	switch {
	case facts.IgnoreRule:
		rationales.Add(models.RationaleIgnoreDeleteRule)
		if creatable {
			decision.ScriptWithNoCheck = true
			rationales.Add(models.RationaleForeignKeyNoCheckRecommended)
		}

	// An already-enforced constraint outranks orphan evidence: the database
	// is the reality, orphans can only come from NOCHECK history.
	case facts.ConstraintExists:
		decision.CreateConstraint = true
		rationales.Add(models.RationaleDbConstraintPresent)

	case facts.HasOrphan:
		rationales.Add(models.RationaleOrphanRowsPresent)
		if creatable {
			decision.ScriptWithNoCheck = true
			rationales.Add(models.RationaleForeignKeyNoCheckRecommended)
		}

	case facts.PolicyDisabled:
		rationales.Add(models.RationaleForeignKeyCreationDisabled)

	case facts.TargetUnresolved:
		rationales.Add(models.RationaleTargetUnresolved)

	case facts.CrossCatalogBlocked || facts.CrossSchemaBlocked:
		if facts.CrossCatalogBlocked {
			rationales.Add(models.RationaleCrossCatalog)
		}
		if facts.CrossSchemaBlocked {
			rationales.Add(models.RationaleCrossSchema)
		}

	default:
		decision.CreateConstraint = true
		rationales.Add(models.RationalePolicyEnableCreation)
	}

	decision.Rationales = rationales.Sorted()

	e.logger.Debug("Foreign key decision",
		zap.String("column", coord.String()),
		zap.String("target", attr.Reference.TargetEntity),
		zap.Bool("create", decision.CreateConstraint),
		zap.Bool("nocheck", decision.ScriptWithNoCheck),
		zap.Strings("rationales", decision.Rationales))

	return decision, facts, true
}

// Enforced reports whether the column's reference is effectively enforced:
// it is a reference, profiling reports no orphaned rows, its delete rule is
// not Ignore, and the database either already constrains it or it is
// eligible for creation under current policy. The nullability evaluator
// consumes this as its ForeignKeyEnforced signal.
func (e *ForeignKeyEvaluator) Enforced(owner EntityRef, attr models.Attribute) bool {
	if attr.Reference == nil {
		return false
	}
	if e.ignoreRule(attr.Reference) {
		return false
	}

	coord := owner.Entity.ColumnCoordinate(attr)
	reality, profiled := e.index.ForeignKeyReality(coord)
	if profiled && reality.HasOrphan {
		return false
	}
	if profiled && reality.ConstraintExists {
		return true
	}

	opts := e.index.Options().ForeignKeys
	if !opts.EnableCreation {
		return false
	}
	target, resolved := e.index.ResolveEntity(attr.Reference.TargetEntity)
	if !resolved {
		return false
	}
	if crossSchema(owner.Entity, target.Entity) && !opts.AllowCrossSchema {
		return false
	}
	if crossCatalog(owner.Entity, target.Entity) && !opts.AllowCrossCatalog {
		return false
	}
	return true
}

func (e *ForeignKeyEvaluator) ignoreRule(ref *models.Reference) bool {
	if strings.EqualFold(ref.DeleteRule, models.DeleteRuleIgnore) {
		return true
	}
	return ref.DeleteRule == "" && e.index.Options().ForeignKeys.TreatMissingDeleteRuleAsIgnore
}

func crossSchema(child, parent models.Entity) bool {
	return !strings.EqualFold(child.Schema, parent.Schema)
}

func crossCatalog(child, parent models.Entity) bool {
	return !strings.EqualFold(child.Catalog, parent.Catalog)
}
