// Package mssql implements the datasource adapter for SQL Server sources.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb" // registers the sqlserver driver
	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/adapters/datasource"
	"github.com/crossquery/crossquery-engine/pkg/catalog"
	"github.com/crossquery/crossquery-engine/pkg/logging"
)

// Adapter provides schema extraction and bounded query execution for one
// SQL Server source.
type Adapter struct {
	db     *sql.DB
	logger *zap.Logger
}

// New connects to a SQL Server source described by its catalog entry.
func New(ctx context.Context, src *catalog.Source, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connStr := connectionString(src.Connection)
	logger.Info("connecting to sqlserver source",
		zap.String("source", src.Name),
		zap.String("connection", logging.SanitizeConnectionString(connStr)))

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver source %q: %w", src.Name, err)
	}

	return &Adapter{
		db:     db,
		logger: logger.Named("mssql").With(zap.String("source", src.Name)),
	}, nil
}

func connectionString(conn catalog.Connection) string {
	port := conn.Port
	if port == 0 {
		port = 1433
	}

	query := url.Values{}
	query.Add("database", conn.Database)
	// ssl_mode "disable" in the catalog maps to an unencrypted connection;
	// anything else requests encryption.
	if conn.SSLMode == "disable" {
		query.Add("encrypt", "false")
	} else {
		query.Add("encrypt", "true")
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(conn.User),
		url.QueryEscape(conn.Password),
		conn.Host,
		port,
		query.Encode(),
	)
}

// Ping verifies the source is reachable with valid credentials.
func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlserver: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Ensure Adapter implements datasource.Adapter at compile time.
var _ datasource.Adapter = (*Adapter)(nil)
