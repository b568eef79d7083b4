package policy

import (
	"fmt"
	"strings"

	"github.com/constrictdb/constrict/pkg/models"
)

// remediationValuePlaceholder stands in for the UPDATE value when the model
// declares no default. The operator substitutes a real value before running.
const remediationValuePlaceholder = "'<provide-value>'"

// RemediationQueryBuilder renders the fixed null-remediation SQL template:
// an UPDATE backfilling NULL rows, a DELETE dropping them, and a SELECT
// listing them. All identifiers are bracket-escaped for SQL Server. The
// engine only generates this text; it never executes anything.
type RemediationQueryBuilder struct{}

// NewRemediationQueryBuilder returns a stateless builder.
func NewRemediationQueryBuilder() *RemediationQueryBuilder {
	return &RemediationQueryBuilder{}
}

// NullRemediation renders the three-part template for one column. The
// defaultValue backfills the UPDATE when present; pkColumns drive the SELECT
// projection and ordering and may be empty.
func (b *RemediationQueryBuilder) NullRemediation(coord models.ColumnCoordinate, defaultValue string, pkColumns []string) string {
	table := QuoteIdentifier(coord.Schema) + "." + QuoteIdentifier(coord.Table)
	column := QuoteIdentifier(coord.Column)

	value := remediationValuePlaceholder
	if defaultValue != "" {
		value = QuoteLiteral(defaultValue)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "UPDATE %s SET %s = %s WHERE %s IS NULL;\n", table, column, value, column)
	fmt.Fprintf(&sb, "DELETE FROM %s WHERE %s IS NULL;\n", table, column)

	if len(pkColumns) > 0 {
		quoted := make([]string, len(pkColumns))
		for i, pk := range pkColumns {
			quoted[i] = QuoteIdentifier(pk)
		}
		pkList := strings.Join(quoted, ", ")
		fmt.Fprintf(&sb, "SELECT %s, * FROM %s WHERE %s IS NULL ORDER BY %s;", pkList, table, column, pkList)
	} else {
		fmt.Fprintf(&sb, "SELECT * FROM %s WHERE %s IS NULL;", table, column)
	}

	return sb.String()
}

// DuplicateInspection renders a SELECT surfacing duplicate key values for a
// unique candidate, for operators remediating before enforcement.
func (b *RemediationQueryBuilder) DuplicateInspection(schema, table string, keyColumns []string) string {
	quoted := make([]string, len(keyColumns))
	for i, col := range keyColumns {
		quoted[i] = QuoteIdentifier(col)
	}
	cols := strings.Join(quoted, ", ")
	qualified := QuoteIdentifier(schema) + "." + QuoteIdentifier(table)
	return fmt.Sprintf("SELECT %s, COUNT(*) AS duplicate_count FROM %s GROUP BY %s HAVING COUNT(*) > 1 ORDER BY %s;",
		cols, qualified, cols, cols)
}

// OrphanInspection renders a SELECT surfacing orphaned child rows for a
// reference column against its resolved target.
func (b *RemediationQueryBuilder) OrphanInspection(child models.ColumnCoordinate, targetSchema, targetTable, targetColumn string) string {
	childTable := QuoteIdentifier(child.Schema) + "." + QuoteIdentifier(child.Table)
	childColumn := QuoteIdentifier(child.Column)
	parentTable := QuoteIdentifier(targetSchema) + "." + QuoteIdentifier(targetTable)
	parentColumn := QuoteIdentifier(targetColumn)
	return fmt.Sprintf("SELECT c.* FROM %s AS c LEFT JOIN %s AS p ON c.%s = p.%s WHERE c.%s IS NOT NULL AND p.%s IS NULL;",
		childTable, parentTable, childColumn, parentColumn, childColumn, parentColumn)
}

// QuoteIdentifier bracket-escapes a SQL Server identifier. Closing brackets
// inside the name are doubled.
func QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// QuoteLiteral renders a single-quoted N-string literal with embedded quotes
// doubled.
func QuoteLiteral(value string) string {
	return "N'" + strings.ReplaceAll(value, "'", "''") + "'"
}
