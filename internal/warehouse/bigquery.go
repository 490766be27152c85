package warehouse

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BigQuerySink streams rows into a dataset table.
type BigQuerySink struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// OpenBigQuery creates a client for project. An empty credentialsFile falls
// back to application default credentials.
func OpenBigQuery(ctx context.Context, project, dataset, table, credentialsFile string) (*BigQuerySink, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	return &BigQuerySink{client: client, dataset: dataset, table: table}, nil
}

// bigQuerySchema declares title as required and the rest as nullable strings.
func bigQuerySchema() bigquery.Schema {
	schema := make(bigquery.Schema, 0, len(Columns))
	for _, col := range Columns {
		schema = append(schema, &bigquery.FieldSchema{
			Name:     col,
			Type:     bigquery.StringFieldType,
			Required: col == "title",
		})
	}
	return schema
}

func (s *BigQuerySink) ref() *bigquery.Table {
	return s.client.Dataset(s.dataset).Table(s.table)
}

func (s *BigQuerySink) Name() string {
	return "bigquery"
}

func (s *BigQuerySink) TableExists(ctx context.Context) (bool, error) {
	_, err := s.ref().Metadata(ctx)
	if err == nil {
		return true, nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("table metadata: %w", err)
}

func (s *BigQuerySink) CreateTable(ctx context.Context) error {
	err := s.ref().Create(ctx, &bigquery.TableMetadata{Schema: bigQuerySchema()})
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		return nil
	}
	return fmt.Errorf("create table %s.%s: %w", s.dataset, s.table, err)
}

// bigQueryRow adapts Row to the streaming inserter.
type bigQueryRow struct {
	row Row
}

// Save opts out of best-effort dedup; every insert is an append.
func (r bigQueryRow) Save() (map[string]bigquery.Value, string, error) {
	values := make(map[string]bigquery.Value, len(Columns))
	for col, v := range r.row.Map() {
		values[col] = v
	}
	return values, bigquery.NoDedupeID, nil
}

func (s *BigQuerySink) Insert(ctx context.Context, row Row) error {
	err := s.ref().Inserter().Put(ctx, bigQueryRow{row: row})
	if err == nil {
		return nil
	}
	var multi bigquery.PutMultiError
	if errors.As(err, &multi) {
		return Malformed(err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
		return Malformed(err)
	}
	return fmt.Errorf("insert into %s.%s: %w", s.dataset, s.table, err)
}

func (s *BigQuerySink) CountRows(ctx context.Context) (int64, error) {
	q := s.client.Query(fmt.Sprintf("SELECT COUNT(*) FROM `%s.%s`", s.dataset, s.table))
	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s.%s: %w", s.dataset, s.table, err)
	}
	var values []bigquery.Value
	err = it.Next(&values)
	if errors.Is(err, iterator.Done) || len(values) == 0 {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read count: %w", err)
	}
	n, _ := values[0].(int64)
	return n, nil
}

func (s *BigQuerySink) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
