package models

// ProfilingSnapshot is the empirical evidence captured from the live
// database, keyed by case-insensitive coordinate keys (ColumnCoordinate.Key,
// IndexCoordinate.Key, CompositeKey). The engine treats it as read-only.
//
// Absence of an entry is meaningful: it says nothing was profiled, which is
// distinct from evidence confirming the data is clean.
type ProfilingSnapshot struct {
	Columns          map[string]ColumnProfile                   `json:"columns"`
	UniqueCandidates map[string]UniqueCandidateProfile          `json:"unique_candidates"`
	CompositeUniques map[string]CompositeUniqueCandidateProfile `json:"composite_uniques"`
	ForeignKeys      map[string]ForeignKeyReality               `json:"foreign_keys"`
}

// ColumnProfile is per-column evidence from one profiling pass.
type ColumnProfile struct {
	Coordinate ColumnCoordinate `json:"coordinate"`
	RowCount   int64            `json:"row_count"`
	NullCount  int64            `json:"null_count"`

	// Physical reality already on disk.
	PhysicalNotNull bool `json:"physical_not_null"`
	IsUniqueKey     bool `json:"is_unique_key"`

	// NullRowSample holds up to a handful of primary-key values of rows
	// where the column is NULL, for contradiction diagnostics.
	NullRowSample []string `json:"null_row_sample,omitempty"`
}

// UniqueCandidateProfile is duplicate evidence for a single-column unique
// candidate.
type UniqueCandidateProfile struct {
	Coordinate   ColumnCoordinate `json:"coordinate"`
	HasDuplicate bool             `json:"has_duplicate"`
}

// CompositeUniqueCandidateProfile is duplicate evidence for a multi-column
// unique candidate. Columns are stored as profiled; matching always goes
// through the order-independent CompositeKey.
type CompositeUniqueCandidateProfile struct {
	Schema       string   `json:"schema"`
	Table        string   `json:"table"`
	Columns      []string `json:"columns"`
	HasDuplicate bool     `json:"has_duplicate"`
}

// ForeignKeyReality is per-reference-column evidence: whether orphaned child
// rows exist and whether the database already enforces the constraint.
type ForeignKeyReality struct {
	Coordinate       ColumnCoordinate `json:"coordinate"`
	HasOrphan        bool             `json:"has_orphan"`
	ConstraintExists bool             `json:"constraint_exists"`
}

// NewProfilingSnapshot returns an empty snapshot with all maps allocated.
func NewProfilingSnapshot() *ProfilingSnapshot {
	return &ProfilingSnapshot{
		Columns:          make(map[string]ColumnProfile),
		UniqueCandidates: make(map[string]UniqueCandidateProfile),
		CompositeUniques: make(map[string]CompositeUniqueCandidateProfile),
		ForeignKeys:      make(map[string]ForeignKeyReality),
	}
}

// Column looks up the profile for a coordinate. The second return reports
// whether the column was profiled at all.
func (s *ProfilingSnapshot) Column(c ColumnCoordinate) (ColumnProfile, bool) {
	p, ok := s.Columns[c.Key()]
	return p, ok
}

// UniqueCandidate looks up single-column duplicate evidence.
func (s *ProfilingSnapshot) UniqueCandidate(c ColumnCoordinate) (UniqueCandidateProfile, bool) {
	p, ok := s.UniqueCandidates[c.Key()]
	return p, ok
}

// CompositeUnique looks up multi-column duplicate evidence by the
// order-independent composite key.
func (s *ProfilingSnapshot) CompositeUnique(schema, table string, columns []string) (CompositeUniqueCandidateProfile, bool) {
	p, ok := s.CompositeUniques[CompositeKey(schema, table, columns)]
	return p, ok
}

// ForeignKey looks up reference-column reality.
func (s *ProfilingSnapshot) ForeignKey(c ColumnCoordinate) (ForeignKeyReality, bool) {
	p, ok := s.ForeignKeys[c.Key()]
	return p, ok
}

// AddColumn stores a column profile under its canonical key.
func (s *ProfilingSnapshot) AddColumn(p ColumnProfile) {
	s.Columns[p.Coordinate.Key()] = p
}

// AddUniqueCandidate stores single-column duplicate evidence.
func (s *ProfilingSnapshot) AddUniqueCandidate(p UniqueCandidateProfile) {
	s.UniqueCandidates[p.Coordinate.Key()] = p
}

// AddCompositeUnique stores multi-column duplicate evidence under the
// order-independent composite key.
func (s *ProfilingSnapshot) AddCompositeUnique(p CompositeUniqueCandidateProfile) {
	s.CompositeUniques[CompositeKey(p.Schema, p.Table, p.Columns)] = p
}

// AddForeignKey stores reference-column reality.
func (s *ProfilingSnapshot) AddForeignKey(p ForeignKeyReality) {
	s.ForeignKeys[p.Coordinate.Key()] = p
}
