package models

import (
	"fmt"
	"sort"
	"strings"
)

// ColumnCoordinate identifies a physical column (schema.table.column).
// It is a comparable value type: two coordinates referring to the same
// physical column compare equal regardless of where they were built.
type ColumnCoordinate struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Column string `json:"column"`
}

// IndexCoordinate identifies a physical index (schema.table.index).
type IndexCoordinate struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Index  string `json:"index"`
}

// ColumnIdentity pairs a physical coordinate with the logical names it was
// derived from. Used for reporting only; evaluation keys off the coordinate.
type ColumnIdentity struct {
	Coordinate ColumnCoordinate `json:"coordinate"`
	Module     string           `json:"module"`
	Entity     string           `json:"entity"`
	Attribute  string           `json:"attribute"`
}

// Key returns a case-insensitive lookup key. SQL Server identifiers are
// case-insensitive under the default collation, so all evidence lookups
// normalize through this form.
func (c ColumnCoordinate) Key() string {
	return strings.ToUpper(c.Schema) + "|" + strings.ToUpper(c.Table) + "|" + strings.ToUpper(c.Column)
}

func (c ColumnCoordinate) String() string {
	return fmt.Sprintf("%s.%s.%s", c.Schema, c.Table, c.Column)
}

// TableKey returns the case-insensitive key of the owning table.
func (c ColumnCoordinate) TableKey() string {
	return strings.ToUpper(c.Schema) + "|" + strings.ToUpper(c.Table)
}

// Key returns a case-insensitive lookup key for the index.
func (c IndexCoordinate) Key() string {
	return strings.ToUpper(c.Schema) + "|" + strings.ToUpper(c.Table) + "|" + strings.ToUpper(c.Index)
}

func (c IndexCoordinate) String() string {
	return fmt.Sprintf("%s.%s.%s", c.Schema, c.Table, c.Index)
}

// CompositeKey builds the order-independent lookup key for a set of columns
// on one table: UPPER(schema)|UPPER(table)|sorted(UPPER(column),...).
// Index key-column order never affects evidence matching.
func CompositeKey(schema, table string, columns []string) string {
	upper := make([]string, len(columns))
	for i, col := range columns {
		upper[i] = strings.ToUpper(col)
	}
	sort.Strings(upper)
	return strings.ToUpper(schema) + "|" + strings.ToUpper(table) + "|" + strings.Join(upper, ",")
}

// SortColumnCoordinates orders coordinates by (schema, table, column),
// case-insensitively, for deterministic report output.
func SortColumnCoordinates(coords []ColumnCoordinate) {
	sort.Slice(coords, func(i, j int) bool {
		return coords[i].Key() < coords[j].Key()
	})
}

// SortIndexCoordinates orders coordinates by (schema, table, index),
// case-insensitively, for deterministic report output.
func SortIndexCoordinates(coords []IndexCoordinate) {
	sort.Slice(coords, func(i, j int) bool {
		return coords[i].Key() < coords[j].Key()
	})
}
