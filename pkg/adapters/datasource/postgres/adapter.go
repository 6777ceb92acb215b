// Package postgres implements the datasource adapter for PostgreSQL sources.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/adapters/datasource"
	"github.com/crossquery/crossquery-engine/pkg/catalog"
	"github.com/crossquery/crossquery-engine/pkg/logging"
)

// Adapter provides schema extraction and bounded query execution for one
// PostgreSQL source.
type Adapter struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New connects to a PostgreSQL source described by its catalog entry.
func New(ctx context.Context, src *catalog.Source, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connStr := connectionString(src.Connection)
	logger.Info("connecting to postgres source",
		zap.String("source", src.Name),
		zap.String("connection", logging.SanitizeConnectionString(connStr)))

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres source %q: %w", src.Name, err)
	}

	return &Adapter{
		pool:   pool,
		logger: logger.Named("postgres").With(zap.String("source", src.Name)),
	}, nil
}

func connectionString(conn catalog.Connection) string {
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		conn.Host, port, conn.User, conn.Password, conn.Database, sslMode,
	)
}

// Ping verifies the source is reachable with valid credentials.
func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (a *Adapter) Close() error {
	a.pool.Close()
	return nil
}

// Ensure Adapter implements datasource.Adapter at compile time.
var _ datasource.Adapter = (*Adapter)(nil)
