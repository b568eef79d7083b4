// Package mssql captures profiling snapshots from a live SQL Server
// database. All queries are read-only; the profiler never mutates the
// target.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/constrictdb/constrict/pkg/logging"
	"github.com/constrictdb/constrict/pkg/models"
)

// Profiler runs read-only profiling queries and builds a snapshot the
// policy engine can consume.
type Profiler struct {
	db          *sql.DB
	sampleLimit int
	logger      *zap.Logger
}

// NewProfiler opens a connection to the target database. If logger is nil,
// a no-op logger is used.
func NewProfiler(ctx context.Context, connString string, sampleLimit int, logger *zap.Logger) (*Profiler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sampleLimit <= 0 {
		sampleLimit = models.DefaultNullSampleLimit
	}

	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlserver: %s", logging.SanitizeError(err))
	}

	logger.Info("Connected to SQL Server for profiling",
		zap.String("connection", logging.SanitizeConnectionString(connString)))

	return &Profiler{db: db, sampleLimit: sampleLimit, logger: logger.Named("mssql-profiler")}, nil
}

// Close releases the underlying connection pool.
func (p *Profiler) Close() error {
	return p.db.Close()
}

// Capture profiles every entity in the model: per-column row/null counts and
// physical flags, duplicate checks for declared unique indexes, and orphan
// plus existing-constraint checks for reference columns.
func (p *Profiler) Capture(ctx context.Context, model *models.Model) (*models.ProfilingSnapshot, error) {
	snapshot := models.NewProfilingSnapshot()

	targets := targetsByLogicalName(model)

	for _, module := range model.Modules {
		for _, entity := range module.Entities {
			if err := p.profileEntity(ctx, snapshot, entity, targets); err != nil {
				return nil, fmt.Errorf("profile %s.%s: %w", entity.Schema, entity.TableName, err)
			}
		}
	}

	p.logger.Info("Profiling capture complete",
		zap.Int("columns", len(snapshot.Columns)),
		zap.Int("unique_candidates", len(snapshot.UniqueCandidates)),
		zap.Int("composite_uniques", len(snapshot.CompositeUniques)),
		zap.Int("foreign_keys", len(snapshot.ForeignKeys)))

	return snapshot, nil
}

func (p *Profiler) profileEntity(ctx context.Context, snapshot *models.ProfilingSnapshot, entity models.Entity, targets map[string]models.Entity) error {
	pkColumn := firstIdentifier(entity)

	for _, attr := range entity.Attributes {
		coord := entity.ColumnCoordinate(attr)
		profile, err := p.profileColumn(ctx, entity, attr, pkColumn)
		if err != nil {
			return fmt.Errorf("column %s: %w", coord.String(), err)
		}
		snapshot.AddColumn(profile)

		if attr.Reference != nil {
			reality, err := p.profileReference(ctx, entity, attr, targets)
			if err != nil {
				return fmt.Errorf("reference %s: %w", coord.String(), err)
			}
			snapshot.AddForeignKey(reality)
		}
	}

	for _, entityIndex := range entity.Indexes {
		if !entityIndex.Unique || len(entityIndex.KeyColumns) == 0 {
			continue
		}
		hasDuplicate, err := p.hasDuplicates(ctx, entity, entityIndex.KeyColumns)
		if err != nil {
			return fmt.Errorf("unique index %s: %w", entityIndex.Name, err)
		}
		if len(entityIndex.KeyColumns) == 1 {
			snapshot.AddUniqueCandidate(models.UniqueCandidateProfile{
				Coordinate:   models.ColumnCoordinate{Schema: entity.Schema, Table: entity.TableName, Column: entityIndex.KeyColumns[0]},
				HasDuplicate: hasDuplicate,
			})
		} else {
			snapshot.AddCompositeUnique(models.CompositeUniqueCandidateProfile{
				Schema:       entity.Schema,
				Table:        entity.TableName,
				Columns:      entityIndex.KeyColumns,
				HasDuplicate: hasDuplicate,
			})
		}
	}

	return nil
}

// profileColumn gathers row/null counts, the physical flags from the system
// catalog, and a bounded null-row sample.
func (p *Profiler) profileColumn(ctx context.Context, entity models.Entity, attr models.Attribute, pkColumn string) (models.ColumnProfile, error) {
	coord := entity.ColumnCoordinate(attr)
	table := quoteName(entity.Schema) + "." + quoteName(entity.TableName)
	column := quoteName(attr.ColumnName)

	profile := models.ColumnProfile{Coordinate: coord}

	countQuery := fmt.Sprintf(
		"SET NOCOUNT ON; SELECT COUNT_BIG(*), SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END) FROM %s",
		column, table)
	var nullCount sql.NullInt64
	if err := p.db.QueryRowContext(ctx, countQuery).Scan(&profile.RowCount, &nullCount); err != nil {
		return profile, fmt.Errorf("count query: %w", err)
	}
	profile.NullCount = nullCount.Int64

	catalogQuery := `
	SET NOCOUNT ON;
	SELECT
	    CASE WHEN c.is_nullable = 0 THEN 1 ELSE 0 END AS physical_not_null,
	    CASE WHEN EXISTS (
	        SELECT 1
	        FROM sys.index_columns ic
	        INNER JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	        WHERE ic.object_id = c.object_id
	          AND ic.column_id = c.column_id
	          AND i.is_unique = 1
	          AND ic.is_included_column = 0
	    ) THEN 1 ELSE 0 END AS is_unique_key
	FROM sys.columns c
	WHERE c.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	  AND c.name = @column
	`
	err := p.db.QueryRowContext(ctx, catalogQuery,
		sql.Named("schema", entity.Schema),
		sql.Named("table", entity.TableName),
		sql.Named("column", attr.ColumnName),
	).Scan(&profile.PhysicalNotNull, &profile.IsUniqueKey)
	if err != nil {
		return profile, fmt.Errorf("catalog query: %w", err)
	}

	if profile.NullCount > 0 && pkColumn != "" {
		sample, err := p.nullRowSample(ctx, table, column, quoteName(pkColumn))
		if err != nil {
			return profile, err
		}
		profile.NullRowSample = sample
	}

	return profile, nil
}

func (p *Profiler) nullRowSample(ctx context.Context, table, column, pkColumn string) ([]string, error) {
	query := fmt.Sprintf(
		"SET NOCOUNT ON; SELECT TOP (%d) CAST(%s AS NVARCHAR(128)) FROM %s WHERE %s IS NULL ORDER BY %s",
		p.sampleLimit, pkColumn, table, column, pkColumn)

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("null sample query: %w", err)
	}
	defer rows.Close()

	var sample []string
	for rows.Next() {
		var key sql.NullString
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}
		sample = append(sample, key.String)
	}
	return sample, rows.Err()
}

// hasDuplicates reports whether any fully non-NULL key combination occurs
// more than once.
func (p *Profiler) hasDuplicates(ctx context.Context, entity models.Entity, keyColumns []string) (bool, error) {
	table := quoteName(entity.Schema) + "." + quoteName(entity.TableName)
	quoted := make([]string, len(keyColumns))
	notNull := make([]string, len(keyColumns))
	for i, col := range keyColumns {
		quoted[i] = quoteName(col)
		notNull[i] = quoteName(col) + " IS NOT NULL"
	}

	query := fmt.Sprintf(
		"SET NOCOUNT ON; SELECT CASE WHEN EXISTS (SELECT %s FROM %s WHERE %s GROUP BY %s HAVING COUNT(*) > 1) THEN 1 ELSE 0 END",
		strings.Join(quoted, ", "), table, strings.Join(notNull, " AND "), strings.Join(quoted, ", "))

	var hasDuplicate bool
	if err := p.db.QueryRowContext(ctx, query).Scan(&hasDuplicate); err != nil {
		return false, fmt.Errorf("duplicate query: %w", err)
	}
	return hasDuplicate, nil
}

// profileReference checks for orphaned child rows against the first entity
// matching the reference's target logical name, and whether a foreign key
// constraint already exists on the column. Duplicate-name canonicalization
// is the engine's job; the profiler only records what the data shows.
func (p *Profiler) profileReference(ctx context.Context, entity models.Entity, attr models.Attribute, targets map[string]models.Entity) (models.ForeignKeyReality, error) {
	coord := entity.ColumnCoordinate(attr)
	reality := models.ForeignKeyReality{Coordinate: coord}

	constraintQuery := `
	SET NOCOUNT ON;
	SELECT CASE WHEN EXISTS (
	    SELECT 1
	    FROM sys.foreign_key_columns fkc
	    INNER JOIN sys.columns c ON fkc.parent_object_id = c.object_id AND fkc.parent_column_id = c.column_id
	    WHERE fkc.parent_object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	      AND c.name = @column
	) THEN 1 ELSE 0 END
	`
	err := p.db.QueryRowContext(ctx, constraintQuery,
		sql.Named("schema", entity.Schema),
		sql.Named("table", entity.TableName),
		sql.Named("column", attr.ColumnName),
	).Scan(&reality.ConstraintExists)
	if err != nil {
		return reality, fmt.Errorf("constraint query: %w", err)
	}

	target, ok := targets[strings.ToUpper(attr.Reference.TargetEntity)]
	if !ok {
		return reality, nil
	}
	targetPK := firstIdentifier(target)
	if targetPK == "" {
		return reality, nil
	}

	childTable := quoteName(entity.Schema) + "." + quoteName(entity.TableName)
	childColumn := quoteName(attr.ColumnName)
	parentTable := quoteName(target.Schema) + "." + quoteName(target.TableName)
	parentColumn := quoteName(targetPK)

	orphanQuery := fmt.Sprintf(
		"SET NOCOUNT ON; SELECT CASE WHEN EXISTS (SELECT 1 FROM %s AS c LEFT JOIN %s AS p ON c.%s = p.%s WHERE c.%s IS NOT NULL AND p.%s IS NULL) THEN 1 ELSE 0 END",
		childTable, parentTable, childColumn, parentColumn, childColumn, parentColumn)

	if err := p.db.QueryRowContext(ctx, orphanQuery).Scan(&reality.HasOrphan); err != nil {
		return reality, fmt.Errorf("orphan query: %w", err)
	}

	return reality, nil
}

// targetsByLogicalName indexes entities by upper-cased logical name, first
// declaration wins.
func targetsByLogicalName(model *models.Model) map[string]models.Entity {
	targets := make(map[string]models.Entity)
	for _, module := range model.Modules {
		for _, entity := range module.Entities {
			key := strings.ToUpper(entity.LogicalName)
			if _, ok := targets[key]; !ok {
				targets[key] = entity
			}
		}
	}
	return targets
}

func firstIdentifier(entity models.Entity) string {
	for _, attr := range entity.Attributes {
		if attr.IsIdentifier {
			return attr.ColumnName
		}
	}
	return ""
}

// quoteName bracket-escapes a SQL Server identifier.
func quoteName(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
