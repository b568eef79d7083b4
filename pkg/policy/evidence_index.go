package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/constrictdb/constrict/pkg/apperrors"
	"github.com/constrictdb/constrict/pkg/models"
)

// diagnosticNamespace seeds deterministic diagnostic IDs so identical inputs
// reproduce identical diagnostics byte for byte.
var diagnosticNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("constrict/diagnostic"))

// EntityRef is a canonical entity together with the module that owns it.
type EntityRef struct {
	Module string
	Entity models.Entity
}

// EvidenceIndex holds the read-only lookups every evaluator reads: the
// attribute index, the canonical-entity map for foreign-key targets, and the
// aggregated unique-candidate evidence sets. It is built once per run and
// never mutated afterwards, so evaluators may share it freely.
type EvidenceIndex struct {
	snapshot *models.ProfilingSnapshot
	options  *models.TighteningOptions

	// canonical entity per upper-cased logical name.
	canonical map[string]EntityRef

	// identity per column coordinate key, for reporting.
	identities map[string]models.ColumnIdentity

	// Aggregated unique-candidate evidence, keyed by column coordinate key.
	singleClean        map[string]struct{}
	singleDuplicate    map[string]struct{}
	compositeClean     map[string]struct{}
	compositeDuplicate map[string]struct{}

	diagnostics []models.TighteningDiagnostic
}

// BuildEvidenceIndex resolves duplicate logical entity names and aggregates
// profiling evidence into the lookups the evaluators consume. Nil arguments
// are programming-contract violations and fail fast.
func BuildEvidenceIndex(model *models.Model, snapshot *models.ProfilingSnapshot, options *models.TighteningOptions, logger *zap.Logger) (*EvidenceIndex, error) {
	if model == nil {
		return nil, apperrors.ErrNilModel
	}
	if snapshot == nil {
		return nil, apperrors.ErrNilSnapshot
	}
	if options == nil {
		return nil, apperrors.ErrNilOptions
	}
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tightening options: %w", err)
	}

	idx := &EvidenceIndex{
		snapshot:           snapshot,
		options:            options,
		canonical:          make(map[string]EntityRef),
		identities:         make(map[string]models.ColumnIdentity),
		singleClean:        make(map[string]struct{}),
		singleDuplicate:    make(map[string]struct{}),
		compositeClean:     make(map[string]struct{}),
		compositeDuplicate: make(map[string]struct{}),
	}

	idx.resolveCanonicalEntities(model, logger)
	idx.indexAttributes(model)
	idx.aggregateUniqueEvidence(snapshot)

	logger.Debug("Evidence index built",
		zap.Int("canonical_entities", len(idx.canonical)),
		zap.Int("indexed_columns", len(idx.identities)),
		zap.Int("single_clean", len(idx.singleClean)),
		zap.Int("single_duplicate", len(idx.singleDuplicate)),
		zap.Int("composite_clean", len(idx.compositeClean)),
		zap.Int("composite_duplicate", len(idx.compositeDuplicate)),
		zap.Int("diagnostics", len(idx.diagnostics)))

	return idx, nil
}

// resolveCanonicalEntities groups entities by logical name and picks exactly
// one canonical entity per name. Singleton groups pass through. For larger
// groups a module-scoped naming override wins when exactly one candidate
// matches; otherwise the lexicographically smallest (module, schema, table)
// candidate wins and a warning diagnostic records the ambiguity.
func (idx *EvidenceIndex) resolveCanonicalEntities(model *models.Model, logger *zap.Logger) {
	groups := make(map[string][]EntityRef)
	for _, module := range model.Modules {
		for _, entity := range module.Entities {
			key := strings.ToUpper(entity.LogicalName)
			groups[key] = append(groups[key], EntityRef{Module: module.Name, Entity: entity})
		}
	}

	// Deterministic group order regardless of model iteration order.
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		candidates := groups[name]
		sort.Slice(candidates, func(i, j int) bool {
			return candidateSortKey(candidates[i]) < candidateSortKey(candidates[j])
		})

		if len(candidates) == 1 {
			idx.canonical[name] = candidates[0]
			continue
		}

		var matches []EntityRef
		for _, c := range candidates {
			for _, override := range idx.options.NamingOverrides {
				if override.Matches(c.Module, c.Entity.LogicalName) {
					matches = append(matches, c)
					break
				}
			}
		}

		switch len(matches) {
		case 1:
			chosen := matches[0]
			idx.canonical[name] = chosen
			idx.diagnostics = append(idx.diagnostics, duplicateDiagnostic(
				models.SeverityInfo, models.DiagnosticDuplicateResolved, chosen, len(candidates),
				fmt.Sprintf("duplicate logical entity %q resolved to module %q by naming override", chosen.Entity.LogicalName, chosen.Module)))
		case 0:
			chosen := candidates[0]
			idx.canonical[name] = chosen
			idx.diagnostics = append(idx.diagnostics, duplicateDiagnostic(
				models.SeverityWarning, models.DiagnosticDuplicateUnresolved, chosen, len(candidates),
				fmt.Sprintf("duplicate logical entity %q has no naming override; defaulting to module %q (%s.%s)", chosen.Entity.LogicalName, chosen.Module, chosen.Entity.Schema, chosen.Entity.TableName)))
		default:
			chosen := candidates[0]
			idx.canonical[name] = chosen
			idx.diagnostics = append(idx.diagnostics, duplicateDiagnostic(
				models.SeverityWarning, models.DiagnosticDuplicateConflict, chosen, len(candidates),
				fmt.Sprintf("duplicate logical entity %q matches %d naming overrides; defaulting to module %q (%s.%s)", chosen.Entity.LogicalName, len(matches), chosen.Module, chosen.Entity.Schema, chosen.Entity.TableName)))
		}

		logger.Debug("Resolved duplicate logical entity",
			zap.String("logical_name", candidates[0].Entity.LogicalName),
			zap.Int("candidates", len(candidates)),
			zap.String("canonical_module", idx.canonical[name].Module))
	}
}

func candidateSortKey(ref EntityRef) string {
	return strings.ToUpper(ref.Module) + "|" + strings.ToUpper(ref.Entity.Schema) + "|" + strings.ToUpper(ref.Entity.TableName)
}

func duplicateDiagnostic(severity models.DiagnosticSeverity, code string, chosen EntityRef, candidates int, message string) models.TighteningDiagnostic {
	return models.TighteningDiagnostic{
		ID:          uuid.NewSHA1(diagnosticNamespace, []byte(code+"|"+strings.ToUpper(chosen.Entity.LogicalName))),
		Severity:    severity,
		Code:        code,
		Message:     message,
		LogicalName: chosen.Entity.LogicalName,
		Module:      chosen.Module,
	}
}

// indexAttributes records the reporting identity of every physical column in
// the model.
func (idx *EvidenceIndex) indexAttributes(model *models.Model) {
	for _, module := range model.Modules {
		for _, entity := range module.Entities {
			for _, attr := range entity.Attributes {
				coord := entity.ColumnCoordinate(attr)
				idx.identities[coord.Key()] = models.ColumnIdentity{
					Coordinate: coord,
					Module:     module.Name,
					Entity:     entity.LogicalName,
					Attribute:  attr.Name,
				}
			}
		}
	}
}

// aggregateUniqueEvidence splits profiled unique candidates into the four
// coordinate sets the evaluators consult as fallback evidence.
func (idx *EvidenceIndex) aggregateUniqueEvidence(snapshot *models.ProfilingSnapshot) {
	for _, candidate := range snapshot.UniqueCandidates {
		key := candidate.Coordinate.Key()
		if candidate.HasDuplicate {
			idx.singleDuplicate[key] = struct{}{}
		} else {
			idx.singleClean[key] = struct{}{}
		}
	}
	for _, candidate := range snapshot.CompositeUniques {
		for _, column := range candidate.Columns {
			coord := models.ColumnCoordinate{Schema: candidate.Schema, Table: candidate.Table, Column: column}
			if candidate.HasDuplicate {
				idx.compositeDuplicate[coord.Key()] = struct{}{}
			} else {
				idx.compositeClean[coord.Key()] = struct{}{}
			}
		}
	}
}

// ResolveEntity returns the canonical entity for a logical name.
func (idx *EvidenceIndex) ResolveEntity(logicalName string) (EntityRef, bool) {
	ref, ok := idx.canonical[strings.ToUpper(logicalName)]
	return ref, ok
}

// Identity returns the reporting identity of a column, falling back to a
// bare coordinate when the column is not part of the model.
func (idx *EvidenceIndex) Identity(coord models.ColumnCoordinate) models.ColumnIdentity {
	if id, ok := idx.identities[coord.Key()]; ok {
		return id
	}
	return models.ColumnIdentity{Coordinate: coord}
}

// ColumnProfile looks up profiled column evidence.
func (idx *EvidenceIndex) ColumnProfile(coord models.ColumnCoordinate) (models.ColumnProfile, bool) {
	return idx.snapshot.Column(coord)
}

// ForeignKeyReality looks up profiled reference evidence.
func (idx *EvidenceIndex) ForeignKeyReality(coord models.ColumnCoordinate) (models.ForeignKeyReality, bool) {
	return idx.snapshot.ForeignKey(coord)
}

// UniqueCandidate looks up direct single-column duplicate evidence.
func (idx *EvidenceIndex) UniqueCandidate(coord models.ColumnCoordinate) (models.UniqueCandidateProfile, bool) {
	return idx.snapshot.UniqueCandidate(coord)
}

// CompositeUnique looks up direct multi-column duplicate evidence through
// the order-independent composite key.
func (idx *EvidenceIndex) CompositeUnique(schema, table string, columns []string) (models.CompositeUniqueCandidateProfile, bool) {
	return idx.snapshot.CompositeUnique(schema, table, columns)
}

// SingleColumnClean reports aggregated clean single-column evidence.
func (idx *EvidenceIndex) SingleColumnClean(coord models.ColumnCoordinate) bool {
	_, ok := idx.singleClean[coord.Key()]
	return ok
}

// SingleColumnDuplicate reports aggregated single-column duplicate evidence.
func (idx *EvidenceIndex) SingleColumnDuplicate(coord models.ColumnCoordinate) bool {
	_, ok := idx.singleDuplicate[coord.Key()]
	return ok
}

// CompositeClean reports aggregated clean composite evidence touching the
// column.
func (idx *EvidenceIndex) CompositeClean(coord models.ColumnCoordinate) bool {
	_, ok := idx.compositeClean[coord.Key()]
	return ok
}

// CompositeDuplicate reports aggregated composite duplicate evidence
// touching the column.
func (idx *EvidenceIndex) CompositeDuplicate(coord models.ColumnCoordinate) bool {
	_, ok := idx.compositeDuplicate[coord.Key()]
	return ok
}

// Options returns the policy options the index was built with.
func (idx *EvidenceIndex) Options() *models.TighteningOptions {
	return idx.options
}

// Diagnostics returns the duplicate-entity findings from index construction,
// in deterministic (logical name) order.
func (idx *EvidenceIndex) Diagnostics() []models.TighteningDiagnostic {
	out := make([]models.TighteningDiagnostic, len(idx.diagnostics))
	copy(out, idx.diagnostics)
	return out
}
