package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const sqliteConstraintCode = 19

// dialect captures the differences between the database/sql backends.
type dialect struct {
	name        string
	driver      string
	placeholder func(i int) string
	existsQuery string
	isMalformed func(err error) bool
}

var sqliteDialect = dialect{
	name:        "sqlite",
	driver:      "sqlite",
	placeholder: func(int) string { return "?" },
	existsQuery: "SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = ?",
	isMalformed: func(err error) bool {
		var coder interface{ Code() int }
		if errors.As(err, &coder) && coder.Code()&0xff == sqliteConstraintCode {
			return true
		}
		return strings.Contains(err.Error(), "constraint failed")
	},
}

var postgresDialect = dialect{
	name:        "postgres",
	driver:      "pgx",
	placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
	existsQuery: "SELECT to_regclass($1) IS NOT NULL",
	isMalformed: func(err error) bool {
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) {
			return false
		}
		// class 22 is data exception, class 23 integrity constraint violation
		return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
	},
}

// SQLSink writes rows through database/sql.
type SQLSink struct {
	db      *sql.DB
	table   string
	dialect dialect
}

// OpenSQLite opens (creating if needed) a SQLite warehouse file.
func OpenSQLite(path, table string) (*SQLSink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite warehouse path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create warehouse directory: %w", err)
	}
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite warehouse: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	return &SQLSink{db: db, table: table, dialect: sqliteDialect}, nil
}

// OpenPostgres connects to a Postgres warehouse through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn, table string) (*SQLSink, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres warehouse: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres warehouse: %w", err)
	}
	return &SQLSink{db: db, table: table, dialect: postgresDialect}, nil
}

func (s *SQLSink) Name() string {
	return s.dialect.name
}

func (s *SQLSink) TableExists(ctx context.Context) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, s.dialect.existsQuery, s.table).Scan(&exists); err != nil {
		return false, fmt.Errorf("check table %s: %w", s.table, err)
	}
	return exists, nil
}

func (s *SQLSink) CreateTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.createStatement()); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLSink) createStatement() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", s.table)
	for i, col := range Columns {
		b.WriteString("    ")
		b.WriteString(col)
		b.WriteString(" TEXT")
		if col == "title" {
			b.WriteString(" NOT NULL CHECK (length(title) > 0)")
		}
		switch col {
		case "description":
			fmt.Fprintf(&b, " CHECK (length(description) <= %d)", DescriptionLimit)
		case "transcript":
			fmt.Fprintf(&b, " CHECK (length(transcript) <= %d)", TranscriptLimit)
		case "summary_and_insights":
			fmt.Fprintf(&b, " CHECK (length(summary_and_insights) <= %d)", SummaryLimit)
		}
		if i < len(Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

func (s *SQLSink) Insert(ctx context.Context, row Row) error {
	placeholders := make([]string, len(Columns))
	for i := range Columns {
		placeholders[i] = s.dialect.placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table, strings.Join(Columns, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.ExecContext(ctx, query, row.Values()...); err != nil {
		if s.dialect.isMalformed(err) {
			return Malformed(err)
		}
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLSink) CountRows(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table, err)
	}
	return n, nil
}

func (s *SQLSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
