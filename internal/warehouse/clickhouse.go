package warehouse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouse server error codes that indicate a row problem.
var clickhouseMalformedCodes = map[int32]bool{
	6:   true, // CANNOT_PARSE_TEXT
	27:  true, // CANNOT_PARSE_INPUT_ASSERTION_FAILED
	53:  true, // TYPE_MISMATCH
	469: true, // VIOLATED_CONSTRAINT
}

// ClickHouseSink writes rows into a MergeTree table.
type ClickHouseSink struct {
	conn  driver.Conn
	table string
}

// OpenClickHouse connects with a clickhouse:// DSN and verifies the server
// answers.
func OpenClickHouse(ctx context.Context, dsn, table, version string) (*ClickHouseSink, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	opts.ClientInfo = clickhouseClientInfo(version)
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return &ClickHouseSink{conn: conn, table: table}, nil
}

func clickhouseClientInfo(version string) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	commit := "unknown"
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				commit = s.Value[:7]
			}
		}
	}
	type kv = struct{ Name, Version string }
	return clickhouse.ClientInfo{Products: []kv{
		{Name: "podenrich", Version: strings.TrimSpace(version)},
		{Name: "go", Version: runtime.Version()},
		{Name: "commit", Version: commit},
		{Name: "host", Version: strings.TrimSpace(host)},
	}}
}

func (s *ClickHouseSink) Name() string {
	return "clickhouse"
}

func (s *ClickHouseSink) TableExists(ctx context.Context) (bool, error) {
	var exists uint8
	if err := s.conn.QueryRow(ctx, "EXISTS TABLE "+s.table).Scan(&exists); err != nil {
		return false, fmt.Errorf("check table %s: %w", s.table, err)
	}
	return exists == 1, nil
}

func (s *ClickHouseSink) CreateTable(ctx context.Context) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", s.table)
	for _, col := range Columns {
		fmt.Fprintf(&b, "    %s String,\n", col)
	}
	b.WriteString("    CONSTRAINT title_present CHECK length(title) > 0,\n")
	fmt.Fprintf(&b, "    CONSTRAINT description_fits CHECK char_length(description) <= %d\n", DescriptionLimit)
	b.WriteString(") ENGINE = MergeTree ORDER BY tuple()")
	if err := s.conn.Exec(ctx, b.String()); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *ClickHouseSink) Insert(ctx context.Context, row Row) error {
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+s.table)
	if err != nil {
		return s.classify(fmt.Errorf("prepare insert: %w", err))
	}
	if err := batch.Append(row.Values()...); err != nil {
		_ = batch.Abort()
		return Malformed(fmt.Errorf("append row: %w", err))
	}
	if err := batch.Send(); err != nil {
		return s.classify(fmt.Errorf("send insert: %w", err))
	}
	return nil
}

func (s *ClickHouseSink) classify(err error) error {
	var ex *clickhouse.Exception
	if errors.As(err, &ex) && clickhouseMalformedCodes[ex.Code] {
		return Malformed(err)
	}
	return err
}

func (s *ClickHouseSink) CountRows(ctx context.Context) (int64, error) {
	var n uint64
	if err := s.conn.QueryRow(ctx, "SELECT count() FROM "+s.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table, err)
	}
	return int64(n), nil
}

func (s *ClickHouseSink) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
