package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/filex"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
	DriverS3       = "s3"
)

// Options selects and configures a backend for Open.
type Options struct {
	Driver string
	// DSN is a file path for sqlite and bolt, a connection string for postgres.
	DSN string
	S3  S3Options
}

// Open builds the Store named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil

	case DriverSQLite:
		dsn := opts.DSN
		if dsn != ":memory:" {
			var err error
			if dsn, err = filex.EnsureParentDir(dsn); err != nil {
				return nil, err
			}
		}
		return OpenSQLite(ctx, dsn)

	case DriverPostgres:
		return OpenPostgres(ctx, opts.DSN)

	case DriverBolt:
		path, err := filex.EnsureParentDir(opts.DSN)
		if err != nil {
			return nil, err
		}
		return OpenBolt(path)

	case DriverS3:
		return OpenS3(ctx, opts.S3)
	}
	return nil, fmt.Errorf("%w: unknown storage driver %q", common.ErrInvalidInput, opts.Driver)
}
