package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/adapters/datasource"
	_ "github.com/crossquery/crossquery-engine/pkg/adapters/datasource/mssql"
	_ "github.com/crossquery/crossquery-engine/pkg/adapters/datasource/postgres"
	"github.com/crossquery/crossquery-engine/pkg/catalog"
	"github.com/crossquery/crossquery-engine/pkg/config"
	"github.com/crossquery/crossquery-engine/pkg/fanout"
	"github.com/crossquery/crossquery-engine/pkg/logging"
	"github.com/crossquery/crossquery-engine/pkg/mcp"
	"github.com/crossquery/crossquery-engine/pkg/mcp/tools"
	"github.com/crossquery/crossquery-engine/pkg/routing"
	"github.com/crossquery/crossquery-engine/pkg/services"
	"github.com/crossquery/crossquery-engine/pkg/translate"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags
var Version = "dev"

const startupProbeTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("transport", cfg.Transport),
		zap.String("sources_path", cfg.SourcesPath),
		zap.String("version", cfg.Version))

	cat, err := catalog.Load(cfg.SourcesPath)
	if err != nil {
		logger.Fatal("failed to load source catalog", zap.Error(err))
	}

	ctx := context.Background()
	adapters := openAdapters(ctx, cat, logger)
	defer func() {
		for _, a := range adapters {
			_ = a.Close()
		}
	}()
	probeSources(ctx, adapters, logger)

	svc := buildService(cat, adapters, cfg, logger)

	srv := mcp.NewServer("crossquery-engine", cfg.Version, logger)
	deps := &tools.RouterToolDeps{Service: svc, Logger: logger}
	tools.RegisterRouterTools(srv.MCP(), deps)
	tools.RegisterSearchTools(srv.MCP(), deps)
	tools.RegisterStatsTools(srv.MCP(), deps)
	tools.RegisterSQLTools(srv.MCP(), deps)
	tools.RegisterSchemaTools(srv.MCP(), deps)
	tools.RegisterSourcesTool(srv.MCP(), deps)
	tools.RegisterHealthTool(srv.MCP(), deps, cfg.Version)

	switch cfg.Transport {
	case "http":
		mux := http.NewServeMux()
		mux.Handle("/mcp", srv.NewStreamableHTTPServer())
		addr := cfg.BindAddr + ":" + cfg.Port
		logger.Info("starting crossquery-engine", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	default:
		logger.Info("starting crossquery-engine on stdio")
		if err := mcpserver.ServeStdio(srv.MCP()); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}
}

// openAdapters opens one adapter per catalog source. A source that fails to
// open is logged and left out; questions still route, and that source
// surfaces as unreachable when executed against.
func openAdapters(ctx context.Context, cat *catalog.Catalog, logger *zap.Logger) map[string]datasource.Adapter {
	adapters := make(map[string]datasource.Adapter, cat.Len())
	for _, src := range cat.Sources() {
		adapter, err := datasource.Open(ctx, src, logger)
		if err != nil {
			logger.Warn("failed to open source adapter",
				zap.String("source", src.Name),
				zap.String("dialect", src.Dialect),
				zap.Error(err))
			continue
		}
		adapters[src.Name] = adapter
	}
	return adapters
}

// probeSources pings each opened adapter once at startup. Failures are
// logged, never fatal; sources can come up later.
func probeSources(ctx context.Context, adapters map[string]datasource.Adapter, logger *zap.Logger) {
	for name, adapter := range adapters {
		probeCtx, cancel := context.WithTimeout(ctx, startupProbeTimeout)
		err := adapter.Ping(probeCtx)
		cancel()
		if err != nil {
			logger.Warn("source unreachable at startup",
				zap.String("source", name),
				zap.Error(err))
			continue
		}
		logger.Info("source reachable", zap.String("source", name))
	}
}

func buildService(cat *catalog.Catalog, adapters map[string]datasource.Adapter, cfg *config.Config, logger *zap.Logger) *services.RouterService {
	providers := make(map[string]datasource.SchemaExtractor, len(adapters))
	executors := make(map[string]fanout.Executor, len(adapters))
	for name, adapter := range adapters {
		providers[name] = adapter
		executors[name] = adapter
	}

	keywords := routing.NewKeywordIndex(cat)
	schema := routing.NewSchemaIndex(providers, logger)
	detector := routing.NewDetector(cat, keywords, schema, logger)
	translator := translate.NewTranslator(cat, cfg.Fanout.RowCap)
	coordinator := fanout.NewCoordinator(executors, cfg.Fanout.PerSourceTimeout(), logger)

	return services.NewRouterService(cat, detector, keywords, schema, translator, coordinator, adapters, cfg, logger)
}
