package policy

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/constrictdb/constrict/pkg/models"
)

// Result is the full output of one engine run.
type Result struct {
	Decisions   *models.PolicyDecisionSet
	Analyses    []models.ColumnAnalysis
	Diagnostics []models.TighteningDiagnostic
	Report      *models.PolicyDecisionReport
}

// Engine runs the evaluators over the whole model and assembles the decision
// set, per-column analyses, diagnostics, and the report. The run is a pure,
// synchronous computation over in-memory inputs: identical (model, snapshot,
// options) always reproduce identical output.
type Engine struct {
	logger    *zap.Logger
	formatter *SummaryFormatter
}

// NewEngine creates an engine logging through the given logger.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger:    logger.Named("tightening-engine"),
		formatter: NewSummaryFormatter(),
	}
}

// Run evaluates every canonical entity's attributes and unique indexes.
// Non-canonical duplicates are excluded from evaluation; their existence is
// reported through the index's duplicate diagnostics.
func (e *Engine) Run(model *models.Model, snapshot *models.ProfilingSnapshot, options *models.TighteningOptions) (*Result, error) {
	index, err := BuildEvidenceIndex(model, snapshot, options, e.logger)
	if err != nil {
		return nil, err
	}

	fkEval := NewForeignKeyEvaluator(index, e.logger)
	nullEval := NewNullabilityEvaluator(index, fkEval, e.logger)
	uniqueEval := NewUniqueIndexStrategy(index, e.logger)
	opportunities := NewOpportunityBuilder()
	queries := NewRemediationQueryBuilder()

	decisions := models.NewPolicyDecisionSet()
	diagnostics := index.Diagnostics()

	entities := canonicalEntities(index, model)

	var analyses []models.ColumnAnalysis
	orphanColumns := 0
	contradictionColumns := 0

	for _, owner := range entities {
		pkColumns := identifierColumns(owner.Entity)

		// Unique indexes first so each column's analysis can pick up the
		// decisions it participates in.
		uniqueByColumn := make(map[string][]models.UniqueIndexDecision)
		uniqueOpportunities := make(map[string][]models.Opportunity)
		for _, entityIndex := range owner.Entity.Indexes {
			decision, facts, ok := uniqueEval.Evaluate(owner, entityIndex)
			if !ok {
				continue
			}
			decisions.UniqueIndexes[decision.Coordinate.Key()] = decision
			for _, col := range decision.KeyColumns {
				uniqueByColumn[col.Key()] = append(uniqueByColumn[col.Key()], decision)
			}

			if opp, surfaced := opportunities.FromUniqueIndex(decision, facts,
				queries.DuplicateInspection(owner.Entity.Schema, owner.Entity.TableName, entityIndex.KeyColumns)); surfaced {
				// Attach the opportunity to the first key column's analysis
				// below; index-level opportunities ride with their columns.
				first := decision.KeyColumns[0].Key()
				uniqueOpportunities[first] = append(uniqueOpportunities[first], opp)
			}
		}

		for _, attr := range owner.Entity.Attributes {
			coord := owner.Entity.ColumnCoordinate(attr)

			nullDecision, signals, contradiction := nullEval.Evaluate(owner, attr)
			decisions.Nullability[coord.Key()] = nullDecision
			if contradiction != nil {
				diagnostics = append(diagnostics, *contradiction)
				contradictionColumns++
			}

			analysis := models.ColumnAnalysis{
				Identity:    index.Identity(coord),
				Nullability: nullDecision,
				UniqueIndex: uniqueByColumn[coord.Key()],
			}

			if opp, surfaced := opportunities.FromNullability(nullDecision, signals,
				queries.NullRemediation(coord, attr.DefaultValue, pkColumns)); surfaced {
				analysis.Opportunities = append(analysis.Opportunities, opp)
			}

			if fkDecision, facts, isReference := fkEval.Evaluate(owner, attr); isReference {
				decisions.ForeignKeys[coord.Key()] = fkDecision
				analysis.ForeignKey = &fkDecision
				if facts.HasOrphan {
					orphanColumns++
				}
				if opp, surfaced := opportunities.FromForeignKey(fkDecision, facts,
					e.orphanInspection(index, queries, coord, attr)); surfaced {
					analysis.Opportunities = append(analysis.Opportunities, opp)
				}
			}

			analysis.Opportunities = append(analysis.Opportunities, uniqueOpportunities[coord.Key()]...)

			analyses = append(analyses, analysis)
		}
	}

	report := e.buildReport(options, decisions, analyses, diagnostics, orphanColumns, contradictionColumns)

	e.logger.Info("Tightening run complete",
		zap.String("mode", string(options.Mode)),
		zap.Int("columns_analyzed", report.Counts.ColumnsAnalyzed),
		zap.Int("columns_tightened", report.Counts.ColumnsTightened),
		zap.Int("foreign_keys_created", report.Counts.ForeignKeysCreated),
		zap.Int("unique_indexes_enforced", report.Counts.UniqueIndexesEnforced),
		zap.Int("opportunities", report.Counts.OpportunityCount),
		zap.Int("diagnostics", len(diagnostics)))

	return &Result{
		Decisions:   decisions,
		Analyses:    analyses,
		Diagnostics: diagnostics,
		Report:      report,
	}, nil
}

// orphanInspection renders the orphan SELECT when the target resolves to a
// canonical entity with an identifier.
func (e *Engine) orphanInspection(index *EvidenceIndex, queries *RemediationQueryBuilder, coord models.ColumnCoordinate, attr models.Attribute) string {
	target, ok := index.ResolveEntity(attr.Reference.TargetEntity)
	if !ok {
		return ""
	}
	targetPKs := identifierColumns(target.Entity)
	if len(targetPKs) == 0 {
		return ""
	}
	return queries.OrphanInspection(coord, target.Entity.Schema, target.Entity.TableName, targetPKs[0])
}

// canonicalEntities returns the canonical entity set in deterministic
// (schema, table) order regardless of model iteration order.
func canonicalEntities(index *EvidenceIndex, model *models.Model) []EntityRef {
	seen := make(map[string]struct{})
	var refs []EntityRef
	for _, module := range model.Modules {
		for _, entity := range module.Entities {
			canonical, ok := index.ResolveEntity(entity.LogicalName)
			if !ok {
				continue
			}
			key := candidateSortKey(canonical)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			refs = append(refs, canonical)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		return candidateSortKey(refs[i]) < candidateSortKey(refs[j])
	})
	return refs
}

// buildReport assembles the sorted lists, histograms, counts, and summary.
func (e *Engine) buildReport(options *models.TighteningOptions, decisions *models.PolicyDecisionSet, analyses []models.ColumnAnalysis, diagnostics []models.TighteningDiagnostic, orphanColumns, contradictionColumns int) *models.PolicyDecisionReport {
	report := &models.PolicyDecisionReport{
		RunID:                 uuid.New(),
		Mode:                  options.Mode,
		NullabilityRationales: make(map[string]int),
		ForeignKeyRationales:  make(map[string]int),
		UniqueIndexRationales: make(map[string]int),
		Analyses:              analyses,
		Diagnostics:           diagnostics,
	}

	for _, d := range decisions.Nullability {
		report.Nullability = append(report.Nullability, d)
		for _, r := range d.Rationales {
			report.NullabilityRationales[r]++
		}
		if d.MakeNotNull {
			report.Counts.ColumnsTightened++
		}
		if d.RequiresRemediation {
			report.Counts.RemediationRequired++
		}
	}
	for _, d := range decisions.ForeignKeys {
		report.ForeignKeys = append(report.ForeignKeys, d)
		for _, r := range d.Rationales {
			report.ForeignKeyRationales[r]++
		}
		if d.CreateConstraint {
			report.Counts.ForeignKeysCreated++
		}
		if d.ScriptWithNoCheck {
			report.Counts.RemediationRequired++
		}
	}
	for _, d := range decisions.UniqueIndexes {
		report.UniqueIndexes = append(report.UniqueIndexes, d)
		for _, r := range d.Rationales {
			report.UniqueIndexRationales[r]++
		}
		if d.EnforceUnique {
			report.Counts.UniqueIndexesEnforced++
		}
		if d.RequiresRemediation {
			report.Counts.RemediationRequired++
		}
	}

	sort.Slice(report.Nullability, func(i, j int) bool {
		return report.Nullability[i].Coordinate.Key() < report.Nullability[j].Coordinate.Key()
	})
	sort.Slice(report.ForeignKeys, func(i, j int) bool {
		return report.ForeignKeys[i].Coordinate.Key() < report.ForeignKeys[j].Coordinate.Key()
	})
	sort.Slice(report.UniqueIndexes, func(i, j int) bool {
		return report.UniqueIndexes[i].Coordinate.Key() < report.UniqueIndexes[j].Coordinate.Key()
	})

	report.Counts.ColumnsAnalyzed = len(analyses)
	for _, a := range analyses {
		report.Counts.OpportunityCount += len(a.Opportunities)
	}

	report.Summary = e.formatter.Format(report, orphanColumns, contradictionColumns)
	return report
}
