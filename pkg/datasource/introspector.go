package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aerostat-io/aerostat-engine/pkg/apperrors"
)

// tableNamePattern is checked before any identifier is spliced into SQL.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateTableName rejects identifiers that cannot be safely quoted.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidTableName, name)
	}
	return nil
}

// TableInfo summarizes one warehouse table.
type TableInfo struct {
	Name        string `json:"name"`
	RowEstimate int64  `json:"row_estimate"`
	Comment     string `json:"comment,omitempty"`
}

// ColumnInfo describes one column of a warehouse table.
type ColumnInfo struct {
	Name       string  `json:"name"`
	DataType   string  `json:"data_type"`
	ColumnType string  `json:"column_type"`
	Nullable   bool    `json:"nullable"`
	Key        string  `json:"key,omitempty"`
	Default    *string `json:"default,omitempty"`
	Extra      string  `json:"extra,omitempty"`
	Comment    string  `json:"comment,omitempty"`
}

// IndexInfo describes one index of a warehouse table.
type IndexInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// TableSchema is the full introspection result for one table.
type TableSchema struct {
	Table   string       `json:"table"`
	Columns []ColumnInfo `json:"columns"`
	Indexes []IndexInfo  `json:"indexes,omitempty"`
}

// ColumnStats holds per-column statistics computed over a sample.
type ColumnStats struct {
	NonNull  int `json:"non_null"`
	Distinct int `json:"distinct"`
}

// TableSample holds sampled rows from one table.
type TableSample struct {
	Table     string                 `json:"table"`
	Columns   []string               `json:"columns"`
	Rows      []map[string]any       `json:"rows"`
	RowCount  int                    `json:"row_count"`
	TotalRows int64                  `json:"total_rows,omitempty"`
	Stats     map[string]ColumnStats `json:"stats,omitempty"`
}

type cachedTables struct {
	tables  []TableInfo
	fetched time.Time
}

type cachedSchema struct {
	schema  *TableSchema
	fetched time.Time
}

// Introspector answers schema questions about the warehouse. List and
// describe results are cached with a TTL; writes never invalidate the cache,
// stale reads within the TTL are acceptable.
type Introspector struct {
	mgr         *Manager
	logger      *zap.Logger
	ttl         time.Duration
	sampleLimit int
	now         func() time.Time

	mu      sync.Mutex
	tables  *cachedTables
	schemas map[string]*cachedSchema
}

// NewIntrospector creates an Introspector backed by mgr. sampleLimit caps
// SampleTable sizes. If logger is nil, a no-op logger is used.
func NewIntrospector(mgr *Manager, ttl time.Duration, sampleLimit int, logger *zap.Logger) *Introspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sampleLimit <= 0 {
		sampleLimit = 50
	}
	return &Introspector{
		mgr:         mgr,
		logger:      logger,
		ttl:         ttl,
		sampleLimit: sampleLimit,
		now:         time.Now,
		schemas:     make(map[string]*cachedSchema),
	}
}

// ListTables returns every base table in the warehouse database.
func (in *Introspector) ListTables(ctx context.Context) ([]TableInfo, error) {
	in.mu.Lock()
	if in.tables != nil && in.now().Sub(in.tables.fetched) < in.ttl {
		tables := in.tables.tables
		in.mu.Unlock()
		return tables, nil
	}
	in.mu.Unlock()

	var tables []TableInfo
	err := in.mgr.WithConnection(ctx, ConnectOptions{ReadOnly: true}, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT table_name, COALESCE(table_rows, 0), COALESCE(table_comment, '')
			FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
			ORDER BY table_name`)
		if err != nil {
			return fmt.Errorf("query tables: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var t TableInfo
			if err := rows.Scan(&t.Name, &t.RowEstimate, &t.Comment); err != nil {
				return fmt.Errorf("scan table row: %w", err)
			}
			tables = append(tables, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	in.mu.Lock()
	in.tables = &cachedTables{tables: tables, fetched: in.now()}
	in.mu.Unlock()

	in.logger.Debug("table list refreshed", zap.Int("tables", len(tables)))
	return tables, nil
}

// DescribeTable returns the column (and optionally index) layout of a table.
func (in *Introspector) DescribeTable(ctx context.Context, name string, includeIndexes bool) (*TableSchema, error) {
	if err := ValidateTableName(name); err != nil {
		return nil, err
	}

	in.mu.Lock()
	if cached, ok := in.schemas[name]; ok && in.now().Sub(cached.fetched) < in.ttl {
		schema := cached.schema
		in.mu.Unlock()
		return trimIndexes(schema, includeIndexes), nil
	}
	in.mu.Unlock()

	schema := &TableSchema{Table: name}
	err := in.mgr.WithConnection(ctx, ConnectOptions{ReadOnly: true}, func(ctx context.Context, tx *sql.Tx) error {
		if err := in.loadColumns(ctx, tx, schema); err != nil {
			return err
		}
		return in.loadIndexes(ctx, tx, schema)
	})
	if err != nil {
		return nil, err
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrTableNotFound, name)
	}

	in.mu.Lock()
	in.schemas[name] = &cachedSchema{schema: schema, fetched: in.now()}
	in.mu.Unlock()

	return trimIndexes(schema, includeIndexes), nil
}

func trimIndexes(schema *TableSchema, includeIndexes bool) *TableSchema {
	if includeIndexes {
		return schema
	}
	out := *schema
	out.Indexes = nil
	return &out
}

func (in *Introspector) loadColumns(ctx context.Context, tx *sql.Tx, schema *TableSchema) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT column_name, data_type, column_type, is_nullable,
		       COALESCE(column_key, ''), column_default,
		       COALESCE(extra, ''), COALESCE(column_comment, '')
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`, schema.Table)
	if err != nil {
		return fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var col ColumnInfo
		var nullable string
		var def sql.NullString
		if err := rows.Scan(&col.Name, &col.DataType, &col.ColumnType,
			&nullable, &col.Key, &def, &col.Extra, &col.Comment); err != nil {
			return fmt.Errorf("scan column row: %w", err)
		}
		col.Nullable = nullable == "YES"
		if def.Valid {
			col.Default = &def.String
		}
		schema.Columns = append(schema.Columns, col)
	}
	return rows.Err()
}

func (in *Introspector) loadIndexes(ctx context.Context, tx *sql.Tx, schema *TableSchema) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT index_name, column_name, non_unique
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY index_name, seq_in_index`, schema.Table)
	if err != nil {
		return fmt.Errorf("query indexes: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]*IndexInfo)
	var order []string
	for rows.Next() {
		var indexName, columnName string
		var nonUnique int
		if err := rows.Scan(&indexName, &columnName, &nonUnique); err != nil {
			return fmt.Errorf("scan index row: %w", err)
		}
		idx, ok := byName[indexName]
		if !ok {
			idx = &IndexInfo{Name: indexName, Unique: nonUnique == 0}
			byName[indexName] = idx
			order = append(order, indexName)
		}
		idx.Columns = append(idx.Columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range order {
		schema.Indexes = append(schema.Indexes, *byName[name])
	}
	return nil
}

// sampleQuery draws a randomized sample so the first physical rows of a table
// do not dominate what callers see.
func sampleQuery(name string, size int) string {
	return fmt.Sprintf("SELECT * FROM `%s` ORDER BY RAND() LIMIT %d", name, size)
}

// SampleTable returns up to sampleSize randomly ordered rows from a table.
// Sample sizes are clamped to the configured limit. Stats, when requested, are
// computed over the sample itself; TotalRows is an exact count of the whole
// table.
func (in *Introspector) SampleTable(ctx context.Context, name string, sampleSize int, includeStats bool) (*TableSample, error) {
	if err := ValidateTableName(name); err != nil {
		return nil, err
	}
	if sampleSize <= 0 || sampleSize > in.sampleLimit {
		sampleSize = in.sampleLimit
	}

	sample := &TableSample{Table: name}
	err := in.mgr.WithConnection(ctx, ConnectOptions{ReadOnly: true}, func(ctx context.Context, tx *sql.Tx) error {
		if includeStats {
			row := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM `%s`", name))
			if err := row.Scan(&sample.TotalRows); err != nil {
				return fmt.Errorf("count rows: %w", err)
			}
		}

		rows, err := tx.QueryContext(ctx, sampleQuery(name, sampleSize))
		if err != nil {
			return fmt.Errorf("sample query: %w", err)
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("get columns: %w", err)
		}
		sample.Columns = columns

		for rows.Next() {
			values := make([]any, len(columns))
			valuePtrs := make([]any, len(columns))
			for i := range values {
				valuePtrs[i] = &values[i]
			}
			if err := rows.Scan(valuePtrs...); err != nil {
				return fmt.Errorf("scan sample row: %w", err)
			}

			rowMap := make(map[string]any, len(columns))
			for i, col := range columns {
				val := values[i]
				// The MySQL text protocol hands most values back as []byte.
				if b, ok := val.([]byte); ok {
					val = string(b)
				}
				rowMap[col] = val
			}
			sample.Rows = append(sample.Rows, rowMap)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	sample.RowCount = len(sample.Rows)
	if includeStats {
		sample.Stats = sampleStats(sample)
	}
	return sample, nil
}

// sampleStats computes non-null and distinct counts per column over the
// sampled rows.
func sampleStats(sample *TableSample) map[string]ColumnStats {
	stats := make(map[string]ColumnStats, len(sample.Columns))
	for _, col := range sample.Columns {
		seen := make(map[string]struct{})
		nonNull := 0
		for _, row := range sample.Rows {
			val := row[col]
			if val == nil {
				continue
			}
			nonNull++
			seen[fmt.Sprintf("%v", val)] = struct{}{}
		}
		stats[col] = ColumnStats{NonNull: nonNull, Distinct: len(seen)}
	}
	return stats
}
