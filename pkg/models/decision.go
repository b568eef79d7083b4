package models

import "sort"

// Rationale codes are stable string constants recording the facts behind a
// decision. They appear verbatim in reports and audits, so their spelling is
// part of the output contract.
const (
	// Nullability signals.
	RationalePrimaryKey                       = "PrimaryKey"
	RationalePhysicalNotNull                  = "PhysicalNotNull"
	RationaleMandatory                        = "Mandatory"
	RationaleDefaultPresent                   = "DefaultPresent"
	RationaleUniqueNoNulls                    = "UniqueNoNulls"
	RationaleUniqueDuplicatesPresent          = "UniqueDuplicatesPresent"
	RationaleCompositeUniqueNoNulls           = "CompositeUniqueNoNulls"
	RationaleCompositeUniqueDuplicatesPresent = "CompositeUniqueDuplicatesPresent"
	RationaleForeignKeyEnforced               = "ForeignKeyEnforced"
	RationaleDataNoNulls                      = "DataNoNulls"
	RationaleDataHasNulls                     = "DataHasNulls"
	RationaleNullBudgetEpsilon                = "NullBudgetEpsilon"
	RationaleProfileMissing                   = "ProfileMissing"
	RationaleRemediateBeforeTighten           = "RemediateBeforeTighten"
	RationaleCautiousRelaxationDisabled       = "CautiousRelaxationDisabled"

	// Foreign-key scenarios.
	RationaleIgnoreDeleteRule             = "IgnoreDeleteRule"
	RationaleOrphanRowsPresent            = "OrphanRowsPresent"
	RationaleDbConstraintPresent          = "DbConstraintPresent"
	RationaleForeignKeyCreationDisabled   = "ForeignKeyCreationDisabled"
	RationaleTargetUnresolved             = "TargetUnresolved"
	RationaleCrossSchema                  = "CrossSchema"
	RationaleCrossCatalog                 = "CrossCatalog"
	RationalePolicyEnableCreation         = "PolicyEnableCreation"
	RationaleForeignKeyNoCheckRecommended = "ForeignKeyNoCheckRecommended"

	// Unique-index scenarios.
	RationaleUniquePolicyDisabled  = "UniquePolicyDisabled"
	RationalePhysicalUniqueReality = "PhysicalUniqueReality"
	RationaleDuplicatesPresent     = "DuplicatesPresent"
	RationaleCleanEvidence         = "CleanEvidence"
	RationaleEvidenceMissing       = "EvidenceMissing"
	RationalePolicyEnforceUnique   = "PolicyEnforceUnique"
)

// RationaleSet accumulates rationale codes with set semantics. Sorted()
// renders them deduplicated in lexicographic (ordinal) order, which keeps
// every report byte-identical across runs.
type RationaleSet struct {
	codes map[string]struct{}
}

// NewRationaleSet returns a set seeded with the given codes.
func NewRationaleSet(codes ...string) *RationaleSet {
	s := &RationaleSet{codes: make(map[string]struct{}, len(codes))}
	s.Add(codes...)
	return s
}

// Add inserts codes, ignoring duplicates and empty strings.
func (s *RationaleSet) Add(codes ...string) {
	for _, c := range codes {
		if c == "" {
			continue
		}
		s.codes[c] = struct{}{}
	}
}

// Has reports whether a code is present.
func (s *RationaleSet) Has(code string) bool {
	_, ok := s.codes[code]
	return ok
}

// Len returns the number of distinct codes.
func (s *RationaleSet) Len() int { return len(s.codes) }

// Sorted returns the codes deduplicated and lexicographically sorted.
func (s *RationaleSet) Sorted() []string {
	out := make([]string, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// NullabilityDecision is the immutable outcome of the nullability evaluator
// for one column. Once produced it is never mutated.
type NullabilityDecision struct {
	Coordinate          ColumnCoordinate `json:"coordinate"`
	MakeNotNull         bool             `json:"make_not_null"`
	RequiresRemediation bool             `json:"requires_remediation"`
	Rationales          []string         `json:"rationales"`
}

// ForeignKeyDecision is the immutable outcome of the foreign-key evaluator
// for one reference column.
type ForeignKeyDecision struct {
	Coordinate        ColumnCoordinate `json:"coordinate"`
	CreateConstraint  bool             `json:"create_constraint"`
	ScriptWithNoCheck bool             `json:"script_with_nocheck"`
	Rationales        []string         `json:"rationales"`
}

// UniqueIndexDecision is the immutable outcome of the unique-index strategy
// for one declared unique index. KeyColumns carries the contributing column
// coordinates so each column's analysis can aggregate the decision.
type UniqueIndexDecision struct {
	Coordinate          IndexCoordinate    `json:"coordinate"`
	EnforceUnique       bool               `json:"enforce_unique"`
	RequiresRemediation bool               `json:"requires_remediation"`
	Rationales          []string           `json:"rationales"`
	KeyColumns          []ColumnCoordinate `json:"key_columns"`
}

// HasRationale reports whether the decision carries the given code.
func (d NullabilityDecision) HasRationale(code string) bool {
	return containsCode(d.Rationales, code)
}

// HasRationale reports whether the decision carries the given code.
func (d ForeignKeyDecision) HasRationale(code string) bool {
	return containsCode(d.Rationales, code)
}

// HasRationale reports whether the decision carries the given code.
func (d UniqueIndexDecision) HasRationale(code string) bool {
	return containsCode(d.Rationales, code)
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
