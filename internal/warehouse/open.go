package warehouse

import (
	"context"
	"fmt"

	"podenrich/internal/config"
	"podenrich/internal/services"
)

// Open connects the sink selected by [warehouse].kind. version is reported
// to backends that record client identity.
func Open(ctx context.Context, cfg config.Warehouse, version string) (Sink, error) {
	var (
		sink Sink
		err  error
	)
	switch cfg.Kind {
	case config.WarehouseSQLite:
		sink, err = OpenSQLite(cfg.DSN, cfg.Table)
	case config.WarehousePostgres:
		sink, err = OpenPostgres(ctx, cfg.DSN, cfg.Table)
	case config.WarehouseClickHouse:
		sink, err = OpenClickHouse(ctx, cfg.DSN, cfg.Table, version)
	case config.WarehouseMongo:
		sink, err = OpenMongo(ctx, cfg.DSN, cfg.Database, cfg.Table)
	case config.WarehouseBigQuery:
		sink, err = OpenBigQuery(ctx, cfg.Project, cfg.Dataset, cfg.Table, cfg.CredentialsFile)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "persist", "open warehouse",
			fmt.Sprintf("unsupported warehouse kind %q", cfg.Kind), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "persist", "open warehouse", cfg.Kind, err)
	}
	return sink, nil
}
