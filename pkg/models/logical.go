package models

// Model is the logical application model the tightening engine consumes.
// It arrives fully extracted (module/entity/attribute graph plus declared
// indexes); the engine treats it as read-only input and never validates its
// internal consistency.
type Model struct {
	Modules []Module `json:"modules" yaml:"modules"`
}

// Module groups the entities owned by one application module.
type Module struct {
	Name     string   `json:"name" yaml:"name"`
	Entities []Entity `json:"entities" yaml:"entities"`
}

// Entity is a logical entity backed by one physical table.
type Entity struct {
	// LogicalName is the model-level name ("User", "Order"). Multiple
	// modules may declare entities with the same logical name; duplicate
	// resolution picks one canonical physical entity per name.
	LogicalName string `json:"logical_name" yaml:"logical_name"`

	// Physical location of the backing table.
	Schema    string `json:"schema" yaml:"schema"`
	TableName string `json:"table_name" yaml:"table_name"`

	// Catalog is the database name, used only for cross-catalog reference
	// boundary checks. Empty means same catalog as everything else.
	Catalog string `json:"catalog,omitempty" yaml:"catalog,omitempty"`

	// IsActive marks entities still present in the application model.
	IsActive bool `json:"is_active" yaml:"is_active"`

	Attributes []Attribute   `json:"attributes" yaml:"attributes"`
	Indexes    []EntityIndex `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// Attribute is a logical attribute backed by one physical column.
type Attribute struct {
	Name         string `json:"name" yaml:"name"`
	ColumnName   string `json:"column_name" yaml:"column_name"`
	DataType     string `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	Mandatory    bool   `json:"mandatory" yaml:"mandatory"`
	IsIdentifier bool   `json:"is_identifier" yaml:"is_identifier"`

	// DefaultValue is the model-declared default, empty when none exists.
	DefaultValue string `json:"default_value,omitempty" yaml:"default_value,omitempty"`

	// Reference is set when the attribute points at another entity.
	Reference *Reference `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// DeleteRule values carried by reference attributes.
const (
	DeleteRuleProtect = "Protect"
	DeleteRuleDelete  = "Delete"
	DeleteRuleIgnore  = "Ignore"
)

// Reference is the model-declared relationship from an attribute to a
// target entity. DeleteRule may be empty when the extractor could not
// determine it; policy decides whether empty means Ignore.
type Reference struct {
	TargetEntity string `json:"target_entity" yaml:"target_entity"`
	DeleteRule   string `json:"delete_rule,omitempty" yaml:"delete_rule,omitempty"`
}

// EntityIndex is a declared index on an entity's backing table. Only
// unique indexes participate in tightening; key-column order is preserved
// as declared but never affects evidence matching.
type EntityIndex struct {
	Name            string   `json:"name" yaml:"name"`
	Unique          bool     `json:"unique" yaml:"unique"`
	KeyColumns      []string `json:"key_columns" yaml:"key_columns"`
	IncludedColumns []string `json:"included_columns,omitempty" yaml:"included_columns,omitempty"`
}

// ColumnCoordinate returns the physical coordinate of an attribute on the
// given entity.
func (e Entity) ColumnCoordinate(attr Attribute) ColumnCoordinate {
	return ColumnCoordinate{Schema: e.Schema, Table: e.TableName, Column: attr.ColumnName}
}

// IndexCoordinate returns the physical coordinate of an index on the
// given entity.
func (e Entity) IndexCoordinate(idx EntityIndex) IndexCoordinate {
	return IndexCoordinate{Schema: e.Schema, Table: e.TableName, Index: idx.Name}
}
