package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/aerostat-io/aerostat-engine/pkg/audit"
	"github.com/aerostat-io/aerostat-engine/pkg/config"
	"github.com/aerostat-io/aerostat-engine/pkg/database"
	"github.com/aerostat-io/aerostat-engine/pkg/datasource"
	"github.com/aerostat-io/aerostat-engine/pkg/llm"
	"github.com/aerostat-io/aerostat-engine/pkg/logging"
	enginemcp "github.com/aerostat-io/aerostat-engine/pkg/mcp"
	"github.com/aerostat-io/aerostat-engine/pkg/mcp/tools"
	"github.com/aerostat-io/aerostat-engine/pkg/pipeline"
	"github.com/aerostat-io/aerostat-engine/pkg/prompts"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("warehouse", logging.SanitizeDSN(cfg.Warehouse.DSN())),
		zap.String("generator", cfg.Generator.Provider),
		zap.Bool("state_db", cfg.StateDB.Enabled),
		zap.String("transport", cfg.Server.Transport),
	)

	ctx := context.Background()

	// Warehouse connection layer. The pool opens lazily; a warehouse that is
	// down at startup only degrades health until it comes back.
	manager := datasource.NewManager(&cfg.Warehouse, logger)
	defer func() { _ = manager.Close() }()

	introspector := datasource.NewIntrospector(
		manager,
		time.Duration(cfg.Pipeline.SchemaCacheTTLMinutes)*time.Minute,
		cfg.Pipeline.SampleRowLimit,
		logger,
	)

	knowledge, err := prompts.LoadKnowledge(cfg.KnowledgePath)
	if err != nil {
		logger.Fatal("Failed to load warehouse knowledge", zap.Error(err))
	}

	generator, err := llm.NewGenerator(&cfg.Generator, logger)
	if err != nil {
		logger.Fatal("Failed to create generator", zap.Error(err))
	}

	executor := pipeline.NewExecutor(manager, cfg, logger)
	schemaProvider := pipeline.NewWarehouseSchemaProvider(introspector, knowledge)
	runner := pipeline.New(cfg, generator, executor, schemaProvider, logger)

	// Optional engine-state database for query history.
	var stateDB *database.DB
	if cfg.StateDB.Enabled {
		stateDB, err = database.NewConnection(ctx, &cfg.StateDB)
		if err != nil {
			logger.Fatal("Failed to connect to state database", zap.Error(err))
		}
		defer stateDB.Close()

		migrationDB := stdlib.OpenDBFromPool(stateDB.Pool)
		if err := database.RunMigrations(migrationDB, cfg.StateDB.MigrationsPath, logger); err != nil {
			logger.Fatal("Failed to run state database migrations", zap.Error(err))
		}
	}

	recorder := audit.NewRecorder(stateDB, cfg.Generator.Model, logger)

	auditor := enginemcp.NewToolAuditor(logger)
	mcpServer := enginemcp.NewServer("aerostat-engine", cfg.Version, auditor.Hooks(), logger)

	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version, manager)
	tools.RegisterSchemaTools(mcpServer.MCP(), &tools.SchemaToolDeps{Source: introspector, Logger: logger})
	tools.RegisterQueryTools(mcpServer.MCP(), &tools.QueryToolDeps{Runner: runner, History: recorder, Logger: logger})

	switch cfg.Server.Transport {
	case "stdio":
		logger.Info("Starting aerostat-engine on stdio", zap.String("version", cfg.Version))
		if err := server.ServeStdio(mcpServer.MCP()); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	default:
		mux := http.NewServeMux()
		mux.Handle("/mcp", mcpServer.NewStreamableHTTPServer())

		logger.Info("Starting aerostat-engine",
			zap.String("port", cfg.Server.Port),
			zap.String("version", cfg.Version))
		if err := http.ListenAndServe(":"+cfg.Server.Port, mux); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}
}
