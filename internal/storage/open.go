package storage

import (
	"context"
	"fmt"
)

const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver      string
	Path        string
	DatabaseURL string
	Key         string
}

// Open builds the gateway selected by o.Driver.
func Open(ctx context.Context, o Options) (Gateway, error) {
	switch o.Driver {
	case DriverFile, "":
		return NewFileGateway(o.Path), nil
	case DriverMemory:
		return NewMemoryGateway(o.Key), nil
	case DriverSQLite:
		return NewSQLiteGateway(ctx, o.Path, o.Key)
	case DriverMySQL:
		return NewMySQLGateway(ctx, o.DatabaseURL, o.Key)
	case DriverPostgres:
		return ConnectPostgres(ctx, o.DatabaseURL, o.Key)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", o.Driver)
	}
}
