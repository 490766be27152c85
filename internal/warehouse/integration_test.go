//go:build integration

package warehouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"podenrich/internal/logging"
)

func startContainer(t *testing.T, req tc.ContainerRequest, port string) (host, mapped string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("start %s: %v", req.Image, err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err = c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	p, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return host, p.Port()
}

func exerciseSink(t *testing.T, sink Sink) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	w := NewWriter(sink, logging.NewNop())
	if err := w.EnsureTable(ctx); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := w.EnsureTable(ctx); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if out := w.Write(ctx, Row{Title: "Episode", AudioURL: "https://example.com/a.mp3"}); !out.Written() {
		t.Fatalf("write: %+v", out)
	}
	n, err := w.CountRows(ctx)
	if err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func TestPostgresSink_Integration(t *testing.T) {
	host, port := startContainer(t, tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}, "5432/tcp")

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, port)
	sink, err := OpenPostgres(context.Background(), dsn, "podcast_episodes")
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer sink.Close()
	exerciseSink(t, sink)
}

func TestClickHouseSink_Integration(t *testing.T) {
	host, port := startContainer(t, tc.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.8-alpine",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "secret",
		},
		WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(2 * time.Minute),
	}, "9000/tcp")

	dsn := fmt.Sprintf("clickhouse://default:secret@%s:%s/default", host, port)
	sink, err := OpenClickHouse(context.Background(), dsn, "podcast_episodes", "test")
	if err != nil {
		t.Fatalf("open clickhouse: %v", err)
	}
	defer sink.Close()
	exerciseSink(t, sink)
}

func TestMongoSink_Integration(t *testing.T) {
	host, port := startContainer(t, tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
	}, "27017/tcp")

	uri := fmt.Sprintf("mongodb://%s:%s", host, port)
	sink, err := OpenMongo(context.Background(), uri, "podenrich", "podcast_episodes")
	if err != nil {
		t.Fatalf("open mongo: %v", err)
	}
	defer sink.Close()
	exerciseSink(t, sink)
}
