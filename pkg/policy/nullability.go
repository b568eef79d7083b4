package policy

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/constrictdb/constrict/pkg/models"
)

// NullabilitySignals is the accumulator the evaluator folds its independent
// boolean signals into before mode gating. Each field is derived purely from
// the evidence index and options; gating never recomputes evidence.
type NullabilitySignals struct {
	PrimaryKey      bool
	PhysicalNotNull bool
	Mandatory       bool
	DefaultPresent  bool

	UniqueNoNulls             bool
	UniqueDuplicates          bool
	CompositeUniqueNoNulls    bool
	CompositeUniqueDuplicates bool
	ForeignKeyEnforced        bool

	ProfileMissing    bool
	DataNoNulls       bool
	DataHasNulls      bool
	NullBudgetEpsilon bool
}

// AnyConditional reports whether any evidence-gated signal fired.
func (s NullabilitySignals) AnyConditional() bool {
	return s.Mandatory || s.UniqueNoNulls || s.CompositeUniqueNoNulls || s.ForeignKeyEnforced
}

// NullabilityEvaluator decides, per column, whether NOT NULL should be
// applied. Primary-key and physical-NOT-NULL signals force tightening in
// every mode; the remaining signals are gated by the policy mode.
type NullabilityEvaluator struct {
	index   *EvidenceIndex
	fk      *ForeignKeyEvaluator
	queries *RemediationQueryBuilder
	logger  *zap.Logger
}

// NewNullabilityEvaluator creates an evaluator reading the given index. The
// foreign-key evaluator supplies the ForeignKeyEnforced signal.
func NewNullabilityEvaluator(index *EvidenceIndex, fk *ForeignKeyEvaluator, logger *zap.Logger) *NullabilityEvaluator {
	return &NullabilityEvaluator{
		index:   index,
		fk:      fk,
		queries: NewRemediationQueryBuilder(),
		logger:  logger.Named("nullability-evaluator"),
	}
}

// Evaluate folds the column's signals and gates them by mode. The returned
// diagnostic is non-nil only for the mandatory-with-real-nulls contradiction,
// which is reported independently of the decision outcome.
func (e *NullabilityEvaluator) Evaluate(owner EntityRef, attr models.Attribute) (models.NullabilityDecision, NullabilitySignals, *models.TighteningDiagnostic) {
	coord := owner.Entity.ColumnCoordinate(attr)
	signals := e.collectSignals(owner, attr, coord)

	opts := e.index.Options()
	rationales := models.NewRationaleSet()
	decision := models.NullabilityDecision{Coordinate: coord}

	// Unconditional signals hold in every mode.
	if signals.PrimaryKey {
		decision.MakeNotNull = true
		rationales.Add(models.RationalePrimaryKey)
	}
	if signals.PhysicalNotNull {
		decision.MakeNotNull = true
		rationales.Add(models.RationalePhysicalNotNull)
	}

	switch opts.Mode {
	case models.ModeCautious:
		e.gateCautious(&decision, signals, rationales)
	case models.ModeEvidenceGated:
		e.gateEvidenceGated(&decision, signals, rationales)
	case models.ModeAggressive:
		e.gateAggressive(&decision, signals, rationales)
	}

	decision.Rationales = rationales.Sorted()

	diag := e.contradictionDiagnostic(owner, attr, coord, signals)

	e.logger.Debug("Nullability decision",
		zap.String("column", coord.String()),
		zap.Bool("make_not_null", decision.MakeNotNull),
		zap.Bool("requires_remediation", decision.RequiresRemediation),
		zap.Strings("rationales", decision.Rationales))

	return decision, signals, diag
}

// collectSignals derives every signal once, in a fixed order.
func (e *NullabilityEvaluator) collectSignals(owner EntityRef, attr models.Attribute, coord models.ColumnCoordinate) NullabilitySignals {
	signals := NullabilitySignals{
		PrimaryKey:     attr.IsIdentifier,
		Mandatory:      attr.Mandatory,
		DefaultPresent: attr.DefaultValue != "",

		UniqueNoNulls:             e.index.SingleColumnClean(coord),
		UniqueDuplicates:          e.index.SingleColumnDuplicate(coord),
		CompositeUniqueNoNulls:    e.index.CompositeClean(coord),
		CompositeUniqueDuplicates: e.index.CompositeDuplicate(coord),

		ForeignKeyEnforced: e.fk.Enforced(owner, attr),
	}

	profile, ok := e.index.ColumnProfile(coord)
	if !ok {
		signals.ProfileMissing = true
		return signals
	}

	signals.PhysicalNotNull = profile.PhysicalNotNull

	budget := e.index.Options().NullBudget
	switch {
	case profile.NullCount == 0 || profile.RowCount == 0:
		signals.DataNoNulls = true
	case float64(profile.NullCount) <= float64(profile.RowCount)*budget:
		signals.DataNoNulls = true
		signals.NullBudgetEpsilon = true
	default:
		signals.DataHasNulls = true
	}

	return signals
}

// gateCautious consults no data. Mandatory alone does not tighten unless
// cautious relaxation is disabled, in which case the column is forced NOT
// NULL with an explicit remediation marker.
func (e *NullabilityEvaluator) gateCautious(decision *models.NullabilityDecision, signals NullabilitySignals, rationales *models.RationaleSet) {
	if !signals.Mandatory {
		return
	}
	rationales.Add(models.RationaleMandatory)
	if signals.DefaultPresent {
		rationales.Add(models.RationaleDefaultPresent)
	}
	if decision.MakeNotNull {
		return
	}
	if e.index.Options().DisableCautiousRelaxation {
		decision.MakeNotNull = true
		decision.RequiresRemediation = true
		rationales.Add(models.RationaleCautiousRelaxationDisabled, models.RationaleRemediateBeforeTighten)
	}
}

// gateEvidenceGated tightens on conditional signals only when profiled data
// confirms the column is within the null budget. Missing evidence leaves the
// column nullable.
func (e *NullabilityEvaluator) gateEvidenceGated(decision *models.NullabilityDecision, signals NullabilitySignals, rationales *models.RationaleSet) {
	if !signals.AnyConditional() {
		return
	}

	addConditionalRationales(signals, rationales)
	addDataRationales(signals, rationales)

	if !signals.DataNoNulls {
		return
	}

	decision.MakeNotNull = true
	if signals.NullBudgetEpsilon {
		decision.RequiresRemediation = true
		rationales.Add(models.RationaleRemediateBeforeTighten)
	}
}

// gateAggressive tightens whenever a conditional signal fired. Missing or
// dirty evidence still tightens, but marks the column for remediation first.
func (e *NullabilityEvaluator) gateAggressive(decision *models.NullabilityDecision, signals NullabilitySignals, rationales *models.RationaleSet) {
	if !signals.AnyConditional() {
		return
	}

	addConditionalRationales(signals, rationales)
	addDataRationales(signals, rationales)

	decision.MakeNotNull = true
	if signals.ProfileMissing || signals.DataHasNulls || signals.NullBudgetEpsilon {
		decision.RequiresRemediation = true
		rationales.Add(models.RationaleRemediateBeforeTighten)
	}
}

func addConditionalRationales(signals NullabilitySignals, rationales *models.RationaleSet) {
	if signals.Mandatory {
		rationales.Add(models.RationaleMandatory)
		if signals.DefaultPresent {
			rationales.Add(models.RationaleDefaultPresent)
		}
	}
	if signals.UniqueNoNulls {
		rationales.Add(models.RationaleUniqueNoNulls)
	}
	if signals.UniqueDuplicates {
		rationales.Add(models.RationaleUniqueDuplicatesPresent)
	}
	if signals.CompositeUniqueNoNulls {
		rationales.Add(models.RationaleCompositeUniqueNoNulls)
	}
	if signals.CompositeUniqueDuplicates {
		rationales.Add(models.RationaleCompositeUniqueDuplicatesPresent)
	}
	if signals.ForeignKeyEnforced {
		rationales.Add(models.RationaleForeignKeyEnforced)
	}
}

func addDataRationales(signals NullabilitySignals, rationales *models.RationaleSet) {
	switch {
	case signals.ProfileMissing:
		rationales.Add(models.RationaleProfileMissing)
	case signals.DataNoNulls:
		rationales.Add(models.RationaleDataNoNulls)
		if signals.NullBudgetEpsilon {
			rationales.Add(models.RationaleNullBudgetEpsilon)
		}
	case signals.DataHasNulls:
		rationales.Add(models.RationaleDataHasNulls)
	}
}

// contradictionDiagnostic reports a mandatory column whose profile shows
// actual NULL rows. The finding is mode-independent: the model promises a
// value the data does not deliver.
func (e *NullabilityEvaluator) contradictionDiagnostic(owner EntityRef, attr models.Attribute, coord models.ColumnCoordinate, signals NullabilitySignals) *models.TighteningDiagnostic {
	if !signals.Mandatory || signals.ProfileMissing {
		return nil
	}
	profile, ok := e.index.ColumnProfile(coord)
	if !ok || profile.NullCount == 0 {
		return nil
	}

	limit := e.index.Options().SampleLimit()
	sample := profile.NullRowSample
	if len(sample) > limit {
		sample = sample[:limit]
	}

	pkColumns := identifierColumns(owner.Entity)
	diag := &models.TighteningDiagnostic{
		ID:       uuid.NewSHA1(diagnosticNamespace, []byte(models.DiagnosticMandatoryNulls+"|"+coord.Key())),
		Severity: models.SeverityWarning,
		Code:     models.DiagnosticMandatoryNulls,
		Message: fmt.Sprintf("mandatory column %s has %d NULL row(s) in profiled data",
			coord.String(), profile.NullCount),
		Column:         &coord,
		Module:         owner.Module,
		LogicalName:    owner.Entity.LogicalName,
		NullCount:      profile.NullCount,
		SampleRows:     sample,
		RemediationSQL: e.queries.NullRemediation(coord, attr.DefaultValue, pkColumns),
	}
	return diag
}

// identifierColumns returns the entity's identifier column names in
// declaration order.
func identifierColumns(entity models.Entity) []string {
	var cols []string
	for _, attr := range entity.Attributes {
		if attr.IsIdentifier {
			cols = append(cols, attr.ColumnName)
		}
	}
	return cols
}
