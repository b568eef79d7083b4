package policy

import (
	"fmt"

	"github.com/constrictdb/constrict/pkg/models"
)

// OpportunityBuilder synthesizes Opportunities for decisions that are not
// cleanly ready to apply. The summary sentence is selected by the dominant
// rationale so identical decisions always read identically.
type OpportunityBuilder struct{}

// NewOpportunityBuilder returns a stateless builder.
func NewOpportunityBuilder() *OpportunityBuilder {
	return &OpportunityBuilder{}
}

// nullabilityTemplates map the dominant rationale to the summary sentence,
// in priority order: the first code present in the decision wins.
var nullabilityTemplates = []struct {
	code    string
	summary string
}{
	{models.RationaleDataHasNulls, "column %s holds NULL rows beyond the null budget; remediate before applying NOT NULL"},
	{models.RationaleProfileMissing, "column %s has tightening signals but was never profiled; capture evidence before applying NOT NULL"},
	{models.RationaleCautiousRelaxationDisabled, "column %s is forced NOT NULL by configuration despite cautious mode; remediate NULL rows first"},
	{models.RationaleUniqueDuplicatesPresent, "column %s carries unique-index signals contradicted by duplicate values"},
	{models.RationaleCompositeUniqueDuplicatesPresent, "column %s participates in a composite unique index contradicted by duplicate values"},
	{models.RationaleNullBudgetEpsilon, "column %s is within the null budget but still holds NULL rows; remediate before applying NOT NULL"},
	{models.RationaleMandatory, "column %s is mandatory in the model but current policy mode does not tighten it"},
}

// foreignKeyTemplates, in priority order.
var foreignKeyTemplates = []struct {
	code    string
	summary string
}{
	{models.RationaleOrphanRowsPresent, "reference column %s has orphaned child rows; the constraint cannot be trusted until they are remediated"},
	{models.RationaleIgnoreDeleteRule, "reference column %s carries an Ignore delete rule; the model does not want this constraint enforced"},
	{models.RationaleForeignKeyCreationDisabled, "reference column %s is creatable but constraint creation is disabled by policy"},
	{models.RationaleTargetUnresolved, "reference column %s points at an entity that could not be resolved to a canonical table"},
	{models.RationaleCrossCatalog, "reference column %s crosses a catalog boundary that policy does not allow"},
	{models.RationaleCrossSchema, "reference column %s crosses a schema boundary that policy does not allow"},
	{models.RationaleForeignKeyNoCheckRecommended, "reference column %s should be scripted WITH NOCHECK while remediation proceeds"},
}

// uniqueIndexTemplates, in priority order.
var uniqueIndexTemplates = []struct {
	code    string
	summary string
}{
	{models.RationaleDuplicatesPresent, "unique index %s has duplicate key values; deduplicate before enforcement"},
	{models.RationaleUniquePolicyDisabled, "unique index %s is not enforced because its category is disabled by policy"},
	{models.RationaleEvidenceMissing, "unique index %s has no duplicate evidence either way; profile before enforcement"},
}

// FromNullability synthesizes the opportunity for a nullability decision.
// Returns false when the decision is cleanly ready to apply.
func (b *OpportunityBuilder) FromNullability(decision models.NullabilityDecision, signals NullabilitySignals, remediationSQL string) (models.Opportunity, bool) {
	ready := decision.MakeNotNull && !decision.RequiresRemediation
	if ready {
		return models.Opportunity{}, false
	}
	// A column with no tightening signals at all is simply not a candidate;
	// there is nothing to surface.
	if !decision.MakeNotNull && !signals.AnyConditional() {
		return models.Opportunity{}, false
	}

	risk := ClassifyRisk(RiskFacts{
		HasDuplicates:            signals.UniqueDuplicates || signals.CompositeUniqueDuplicates,
		ProfileMissingWithSignal: signals.ProfileMissing && signals.AnyConditional(),
		RequiresRemediation:      decision.RequiresRemediation || signals.DataHasNulls || signals.NullBudgetEpsilon,
	})

	coord := decision.Coordinate
	opp := models.Opportunity{
		Type:        models.OpportunityNullability,
		Disposition: disposition(decision.RequiresRemediation || signals.DataHasNulls || signals.NullBudgetEpsilon),
		Risk:        risk,
		Summary:     pickSummary(nullabilityTemplates, decision.Rationales, coord.String(), "column %s cannot be tightened under the current policy mode"),
		Rationales:  decision.Rationales,
		Column:      &coord,
	}
	if opp.Disposition == models.DispositionNeedsRemediation {
		opp.RemediationSQL = remediationSQL
	}
	return opp, true
}

// FromForeignKey synthesizes the opportunity for a foreign-key decision.
// Returns false when the constraint is created outright.
func (b *OpportunityBuilder) FromForeignKey(decision models.ForeignKeyDecision, facts ForeignKeyFacts, remediationSQL string) (models.Opportunity, bool) {
	ready := decision.CreateConstraint && !decision.ScriptWithNoCheck
	if ready {
		return models.Opportunity{}, false
	}

	risk := ClassifyRisk(RiskFacts{
		HasOrphan:           facts.HasOrphan,
		IgnoreRule:          facts.IgnoreRule,
		CrossSchemaBlocked:  facts.CrossSchemaBlocked,
		CrossCatalogBlocked: facts.CrossCatalogBlocked,
		PolicyDisabled:      facts.PolicyDisabled || facts.TargetUnresolved,
		RequiresRemediation: decision.ScriptWithNoCheck,
	})

	coord := decision.Coordinate
	opp := models.Opportunity{
		Type:        models.OpportunityForeignKey,
		Disposition: disposition(facts.HasOrphan || decision.ScriptWithNoCheck),
		Risk:        risk,
		Summary:     pickSummary(foreignKeyTemplates, decision.Rationales, coord.String(), "reference column %s does not get a constraint under the current policy"),
		Rationales:  decision.Rationales,
		Column:      &coord,
	}
	if facts.HasOrphan {
		opp.RemediationSQL = remediationSQL
	}
	return opp, true
}

// FromUniqueIndex synthesizes the opportunity for a unique-index decision.
// Returns false when enforcement is cleanly ready.
func (b *OpportunityBuilder) FromUniqueIndex(decision models.UniqueIndexDecision, facts UniqueIndexFacts, remediationSQL string) (models.Opportunity, bool) {
	ready := decision.EnforceUnique && !decision.RequiresRemediation
	if ready {
		return models.Opportunity{}, false
	}

	risk := ClassifyRisk(RiskFacts{
		HasDuplicates:       facts.HasDuplicates,
		PolicyDisabled:      facts.PolicyDisabled,
		HasEvidence:         facts.HasEvidence,
		PhysicalReality:     facts.PhysicalReality,
		RequiresRemediation: decision.RequiresRemediation,
	})

	coord := decision.Coordinate
	opp := models.Opportunity{
		Type:        models.OpportunityUniqueIndex,
		Disposition: disposition(facts.HasDuplicates || decision.RequiresRemediation),
		Risk:        risk,
		Summary:     pickSummary(uniqueIndexTemplates, decision.Rationales, coord.String(), "unique index %s is not enforced under the current policy mode"),
		Rationales:  decision.Rationales,
		Index:       &coord,
	}
	if facts.HasDuplicates {
		opp.RemediationSQL = remediationSQL
	}
	return opp, true
}

func disposition(needsRemediation bool) models.OpportunityDisposition {
	if needsRemediation {
		return models.DispositionNeedsRemediation
	}
	return models.DispositionReadyToApply
}

func pickSummary(templates []struct {
	code    string
	summary string
}, rationales []string, subject, fallback string) string {
	present := make(map[string]struct{}, len(rationales))
	for _, r := range rationales {
		present[r] = struct{}{}
	}
	for _, t := range templates {
		if _, ok := present[t.code]; ok {
			return fmt.Sprintf(t.summary, subject)
		}
	}
	return fmt.Sprintf(fallback, subject)
}
