package models

import (
	"fmt"
	"strings"
)

// PolicyMode selects how much empirical evidence the engine requires before
// tightening a schema element.
type PolicyMode string

const (
	// ModeCautious tightens only on declarative certainty (primary keys,
	// physical NOT NULL, mandatory flags). Profiled data is never consulted.
	ModeCautious PolicyMode = "cautious"

	// ModeEvidenceGated tightens on conditional signals only when profiled
	// data confirms the column is clean.
	ModeEvidenceGated PolicyMode = "evidence-gated"

	// ModeAggressive tightens on conditional signals unconditionally,
	// flagging remediation where evidence is missing or dirty.
	ModeAggressive PolicyMode = "aggressive"
)

// ParsePolicyMode maps a config string to a PolicyMode, case-insensitively.
func ParsePolicyMode(s string) (PolicyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeCautious):
		return ModeCautious, nil
	case string(ModeEvidenceGated), "evidencegated":
		return ModeEvidenceGated, nil
	case string(ModeAggressive):
		return ModeAggressive, nil
	default:
		return "", fmt.Errorf("unknown policy mode %q", s)
	}
}

// ForeignKeyOptions controls FOREIGN KEY constraint creation.
type ForeignKeyOptions struct {
	// EnableCreation gates all new constraint creation. Existing database
	// constraints are still acknowledged when this is false.
	EnableCreation bool `yaml:"enable_creation" json:"enable_creation"`

	// AllowCrossSchema permits constraints whose parent table lives in a
	// different schema than the child.
	AllowCrossSchema bool `yaml:"allow_cross_schema" json:"allow_cross_schema"`

	// AllowCrossCatalog permits constraints across database boundaries.
	// SQL Server cannot enforce these; leaving it false is the norm.
	AllowCrossCatalog bool `yaml:"allow_cross_catalog" json:"allow_cross_catalog"`

	// TreatMissingDeleteRuleAsIgnore decides what an absent delete rule
	// means. True reads absence as Ignore and blocks creation.
	TreatMissingDeleteRuleAsIgnore bool `yaml:"treat_missing_delete_rule_as_ignore" json:"treat_missing_delete_rule_as_ignore"`
}

// UniquenessOptions controls UNIQUE index enforcement.
type UniquenessOptions struct {
	EnforceSingleColumn bool `yaml:"enforce_single_column" json:"enforce_single_column"`
	EnforceMultiColumn  bool `yaml:"enforce_multi_column" json:"enforce_multi_column"`
}

// NamingOverride pins the canonical entity for one (module, logical name)
// pair when several modules declare the same logical entity. Used only for
// duplicate resolution.
type NamingOverride struct {
	Module      string `yaml:"module" json:"module"`
	LogicalName string `yaml:"logical_name" json:"logical_name"`
}

// Matches reports whether the override applies to the given pair,
// case-insensitively.
func (o NamingOverride) Matches(module, logicalName string) bool {
	return strings.EqualFold(o.Module, module) && strings.EqualFold(o.LogicalName, logicalName)
}

// TighteningOptions is the full policy configuration for one engine run.
// Every engine output is fully determined by (model, snapshot, options).
type TighteningOptions struct {
	Mode PolicyMode `yaml:"mode" json:"mode"`

	// NullBudget is the tolerated fraction of NULL rows, in [0,1]. A column
	// is within budget when NullCount == 0, RowCount == 0, or
	// NullCount <= RowCount * NullBudget.
	NullBudget float64 `yaml:"null_budget" json:"null_budget"`

	// DisableCautiousRelaxation forces mandatory columns NOT NULL even in
	// cautious mode, marking them for remediation instead of leaving them
	// nullable.
	DisableCautiousRelaxation bool `yaml:"disable_cautious_relaxation" json:"disable_cautious_relaxation"`

	ForeignKeys ForeignKeyOptions `yaml:"foreign_keys" json:"foreign_keys"`
	Uniqueness  UniquenessOptions `yaml:"uniqueness" json:"uniqueness"`

	NamingOverrides []NamingOverride `yaml:"naming_overrides" json:"naming_overrides"`

	// NullSampleLimit caps how many sample rows a contradiction diagnostic
	// carries. Zero means DefaultNullSampleLimit.
	NullSampleLimit int `yaml:"null_sample_limit" json:"null_sample_limit"`
}

// DefaultNullSampleLimit is the sample-row cap used when options leave
// NullSampleLimit unset.
const DefaultNullSampleLimit = 5

// Validate rejects structurally invalid options. Business outcomes are never
// validation failures; this only guards programming-contract preconditions.
func (o *TighteningOptions) Validate() error {
	switch o.Mode {
	case ModeCautious, ModeEvidenceGated, ModeAggressive:
	default:
		return fmt.Errorf("unknown policy mode %q", o.Mode)
	}
	if o.NullBudget < 0 || o.NullBudget > 1 {
		return fmt.Errorf("null budget %v outside [0,1]", o.NullBudget)
	}
	if o.NullSampleLimit < 0 {
		return fmt.Errorf("null sample limit %d is negative", o.NullSampleLimit)
	}
	return nil
}

// SampleLimit returns the effective null-row sample cap.
func (o *TighteningOptions) SampleLimit() int {
	if o.NullSampleLimit > 0 {
		return o.NullSampleLimit
	}
	return DefaultNullSampleLimit
}

// DefaultTighteningOptions returns the conservative baseline: evidence-gated
// tightening with no null budget and single-column uniqueness enforcement.
func DefaultTighteningOptions() TighteningOptions {
	return TighteningOptions{
		Mode:       ModeEvidenceGated,
		NullBudget: 0,
		ForeignKeys: ForeignKeyOptions{
			EnableCreation: true,
		},
		Uniqueness: UniquenessOptions{
			EnforceSingleColumn: true,
		},
	}
}
