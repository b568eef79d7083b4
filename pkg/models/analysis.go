package models

import "github.com/google/uuid"

// RiskLevel is the qualitative risk of applying a tightening decision.
type RiskLevel string

const (
	RiskUnknown  RiskLevel = "unknown"
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// ChangeRisk classifies one decision. It is derived from the decision and
// its contributing facts, never stored independently.
type ChangeRisk struct {
	Level       RiskLevel `json:"level"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
}

// OpportunityType names the decision category an opportunity belongs to.
type OpportunityType string

const (
	OpportunityNullability OpportunityType = "nullability"
	OpportunityForeignKey  OpportunityType = "foreign_key"
	OpportunityUniqueIndex OpportunityType = "unique_index"
)

// OpportunityDisposition says whether the change can be applied as-is or
// needs data remediation first.
type OpportunityDisposition string

const (
	DispositionReadyToApply     OpportunityDisposition = "ready_to_apply"
	DispositionNeedsRemediation OpportunityDisposition = "needs_remediation"
)

// Opportunity surfaces a decision that could not be cleanly, immediately
// applied, with enough context for a human to act on it.
type Opportunity struct {
	Type        OpportunityType        `json:"type"`
	Disposition OpportunityDisposition `json:"disposition"`
	Risk        ChangeRisk             `json:"risk"`
	Summary     string                 `json:"summary"`
	Rationales  []string               `json:"rationales"`

	Column *ColumnCoordinate `json:"column,omitempty"`
	Index  *IndexCoordinate  `json:"index,omitempty"`

	// RemediationSQL is the generated cleanup template, when one applies.
	RemediationSQL string `json:"remediation_sql,omitempty"`
}

// DiagnosticSeverity separates informational resolutions from findings that
// need human attention.
type DiagnosticSeverity string

const (
	SeverityInfo    DiagnosticSeverity = "info"
	SeverityWarning DiagnosticSeverity = "warning"
)

// Diagnostic codes for cross-cutting findings.
const (
	DiagnosticDuplicateResolved   = "duplicate_entity_resolved"
	DiagnosticDuplicateUnresolved = "duplicate_entity_unresolved"
	DiagnosticDuplicateConflict   = "duplicate_entity_conflict"
	DiagnosticMandatoryNulls      = "mandatory_column_has_nulls"
)

// TighteningDiagnostic is a cross-cutting finding (duplicate-entity
// resolution, mandatory/null contradiction). Each distinct offending
// entity or column is reported exactly once per run.
type TighteningDiagnostic struct {
	ID       uuid.UUID          `json:"id"`
	Severity DiagnosticSeverity `json:"severity"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`

	Column *ColumnCoordinate `json:"column,omitempty"`

	// Entity context for duplicate-name findings.
	LogicalName string `json:"logical_name,omitempty"`
	Module      string `json:"module,omitempty"`

	// Contradiction evidence.
	NullCount  int64    `json:"null_count,omitempty"`
	SampleRows []string `json:"sample_rows,omitempty"`

	// RemediationSQL is attached to contradiction findings.
	RemediationSQL string `json:"remediation_sql,omitempty"`
}

// ColumnAnalysis aggregates everything the engine concluded about one
// physical column.
type ColumnAnalysis struct {
	Identity    ColumnIdentity        `json:"identity"`
	Nullability NullabilityDecision   `json:"nullability"`
	ForeignKey  *ForeignKeyDecision   `json:"foreign_key,omitempty"`
	UniqueIndex []UniqueIndexDecision `json:"unique_indexes,omitempty"`

	Opportunities []Opportunity `json:"opportunities,omitempty"`
}

// PolicyDecisionSet is the coordinate-keyed output of a full engine run.
// Keys are the canonical coordinate keys (ColumnCoordinate.Key /
// IndexCoordinate.Key).
type PolicyDecisionSet struct {
	Nullability   map[string]NullabilityDecision `json:"nullability"`
	ForeignKeys   map[string]ForeignKeyDecision  `json:"foreign_keys"`
	UniqueIndexes map[string]UniqueIndexDecision `json:"unique_indexes"`
}

// NewPolicyDecisionSet returns an empty decision set with maps allocated.
func NewPolicyDecisionSet() *PolicyDecisionSet {
	return &PolicyDecisionSet{
		Nullability:   make(map[string]NullabilityDecision),
		ForeignKeys:   make(map[string]ForeignKeyDecision),
		UniqueIndexes: make(map[string]UniqueIndexDecision),
	}
}

// ReportCounts are the headline numbers of one run.
type ReportCounts struct {
	ColumnsAnalyzed       int `json:"columns_analyzed"`
	ColumnsTightened      int `json:"columns_tightened"`
	RemediationRequired   int `json:"remediation_required"`
	ForeignKeysCreated    int `json:"foreign_keys_created"`
	UniqueIndexesEnforced int `json:"unique_indexes_enforced"`
	OpportunityCount      int `json:"opportunity_count"`
}

// PolicyDecisionReport is the serializable result of one engine run:
// sorted decisions, per-category rationale histograms, headline counts, and
// the ordered natural-language summary.
type PolicyDecisionReport struct {
	RunID  uuid.UUID    `json:"run_id"`
	Mode   PolicyMode   `json:"mode"`
	Counts ReportCounts `json:"counts"`

	// Decisions sorted by (schema, table, column/index).
	Nullability   []NullabilityDecision `json:"nullability"`
	ForeignKeys   []ForeignKeyDecision  `json:"foreign_keys"`
	UniqueIndexes []UniqueIndexDecision `json:"unique_indexes"`

	// Rationale frequency per decision category, keyed by rationale code.
	NullabilityRationales map[string]int `json:"nullability_rationales"`
	ForeignKeyRationales  map[string]int `json:"foreign_key_rationales"`
	UniqueIndexRationales map[string]int `json:"unique_index_rationales"`

	Analyses    []ColumnAnalysis       `json:"analyses"`
	Diagnostics []TighteningDiagnostic `json:"diagnostics"`

	// Summary sentences in presentation order.
	Summary []string `json:"summary"`
}
