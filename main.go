package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/food-agent/pkg/audit"
	"github.com/ekaya-inc/food-agent/pkg/auth"
	"github.com/ekaya-inc/food-agent/pkg/config"
	"github.com/ekaya-inc/food-agent/pkg/handlers"
	"github.com/ekaya-inc/food-agent/pkg/logging"
	"github.com/ekaya-inc/food-agent/pkg/mcp"
	mcpauth "github.com/ekaya-inc/food-agent/pkg/mcp/auth"
	"github.com/ekaya-inc/food-agent/pkg/mcp/tools"
	"github.com/ekaya-inc/food-agent/pkg/middleware"
	"github.com/ekaya-inc/food-agent/pkg/repositories"
	"github.com/ekaya-inc/food-agent/pkg/services"
	"github.com/ekaya-inc/food-agent/pkg/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	stdio := flag.Bool("stdio", false, "serve MCP on stdin/stdout as the default tenant instead of HTTP")
	dumpConfig := flag.Bool("dump-config", false, "print the effective configuration as YAML and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *dumpConfig {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			log.Fatalf("Failed to encode config: %v", err)
		}
		fmt.Print(string(out))
		return
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	for _, warning := range cfg.Warnings {
		logger.Warn("Configuration warning", zap.String("warning", warning))
	}

	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("data_dir", cfg.DataDir),
		zap.String("data_dir_source", cfg.DataDirSource),
		zap.String("config_dir", cfg.ConfigDir),
		zap.Int("day_cutoff_hour", cfg.DayCutoffHour),
		zap.Bool("admin_api", cfg.AdminEnabled()),
		zap.Bool("stdio", *stdio))

	layout := storage.NewLayout(cfg.DataDir)
	locks := storage.NewKeyedMutex()

	foodLogService := services.NewFoodLogService(
		repositories.NewFoodLogRepository(layout, locks, logger), cfg.DayCutoffHour, time.Now, logger)
	catalogService := services.NewCatalogService(
		repositories.NewCatalogRepository(layout, locks, logger), logger)
	userService := services.NewUserService(
		repositories.NewUserRepository(layout, logger), logger)

	toolAudit := mcp.NewAuditLogger(logger)
	mcpServer := mcp.NewServer("food-agent", cfg.Version, logger, server.WithHooks(toolAudit.Hooks()))

	base := tools.BaseMCPToolDeps{Logger: logger, RequireTenant: !*stdio}
	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)
	tools.RegisterFoodLogTools(mcpServer.MCP(), &tools.FoodLogToolDeps{
		BaseMCPToolDeps: base,
		FoodLogService:  foodLogService,
	})
	tools.RegisterCatalogTools(mcpServer.MCP(), &tools.CatalogToolDeps{
		BaseMCPToolDeps: base,
		CatalogService:  catalogService,
	})

	if *stdio {
		tools.RegisterSettingsTools(mcpServer.MCP(), &tools.SettingsToolDeps{
			BaseMCPToolDeps: base,
			SettingsService: services.NewSettingsService(cfg.ConfigDir, logger),
		})
		if err := mcpServer.ServeStdio(); err != nil {
			logger.Fatal("MCP stdio server failed", zap.Error(err))
		}
		return
	}

	securityAuditor := audit.NewSecurityAuditor(logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)

	mcpAuthMiddleware := mcpauth.NewMiddleware(userService, securityAuditor, logger)
	handlers.NewMCPHandler(mcpServer, logger, cfg.MCP).RegisterRoutes(mux, mcpAuthMiddleware)

	if cfg.AdminEnabled() {
		adminAuth := auth.NewMiddleware(cfg.AdminSharedSecret, securityAuditor, logger)
		handlers.NewAdminUsersHandler(userService, securityAuditor, logger).RegisterRoutes(mux, adminAuth)
	} else {
		logger.Info("Admin API disabled: ADMIN_SHARED_SECRET is not set")
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting food-agent",
			zap.String("addr", srv.Addr),
			zap.String("base_url", cfg.BaseURL),
			zap.Bool("tls", cfg.TLSCertPath != ""))
		if cfg.TLSCertPath != "" {
			serveErr <- srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			serveErr <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
}
