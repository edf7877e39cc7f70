// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mcutler/reeldeck/internal/api"
	"github.com/mcutler/reeldeck/internal/config"
	"github.com/mcutler/reeldeck/internal/db"
	"github.com/mcutler/reeldeck/internal/library"
	"github.com/mcutler/reeldeck/internal/lists"
	"github.com/mcutler/reeldeck/internal/logger"
	"github.com/mcutler/reeldeck/internal/middleware"
	"github.com/mcutler/reeldeck/internal/models"
	"github.com/mcutler/reeldeck/internal/provider"
	"github.com/mcutler/reeldeck/internal/queue"
	"github.com/mcutler/reeldeck/internal/remote"
	"github.com/mcutler/reeldeck/internal/scheduler"
	"github.com/mcutler/reeldeck/internal/sync"
)

// Server represents the HTTP server
type Server struct {
	config         *config.Config
	db             *db.DB
	repos          *db.Repositories
	libraryService *library.Service
	providerClient *provider.Client
	queueEngine    *queue.Engine
	listsService   *lists.Service
	syncEngine     *sync.Engine
	scheduler      *scheduler.Scheduler
	router         *gin.Engine
	server         *http.Server
}

// New creates a new server instance and wires the service graph
func New(ctx context.Context, cfg *config.Config, database *db.DB) (*Server, error) {
	repos := db.NewRepositories(database)

	libraryService, err := library.NewService(ctx, repos, cfg.Queue.UndoCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize library service: %w", err)
	}

	providerClient := provider.NewClient(&cfg.Provider)
	queueEngine := queue.NewEngine(providerClient, libraryService, cfg.Queue)

	listsService := lists.NewService(repos)

	remoteClient := remote.NewClient(&cfg.Remote)
	syncEngine := sync.NewEngine(remoteClient, repos, cfg.Remote.UserID, cfg.Remote.DisplayName,
		func(ctx context.Context, list *models.UserList) ([]*models.ClassifiedItem, error) {
			return listsService.ListItems(ctx, list.ID)
		})

	// Every list mutation pushes the published snapshot outward
	listsService.SetSyncHook(syncEngine.SyncIfPublished)

	return &Server{
		config:         cfg,
		db:             database,
		repos:          repos,
		libraryService: libraryService,
		providerClient: providerClient,
		queueEngine:    queueEngine,
		listsService:   listsService,
		syncEngine:     syncEngine,
		scheduler:      scheduler.New(syncEngine, cfg.Sync.RefreshSchedule),
	}, nil
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	// Add middleware stack
	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(cors.Default())

	apiGroup := s.router.Group("/api")

	api.SetupHealthRoutes(apiGroup, s.db)
	api.SetupDeckRoutes(apiGroup, s.queueEngine, s.libraryService)
	api.SetupSearchRoutes(apiGroup, s.providerClient)
	api.SetupLibraryRoutes(apiGroup, s.libraryService)
	api.SetupListRoutes(apiGroup, s.listsService, s.syncEngine)
	api.SetupFollowRoutes(apiGroup, s.syncEngine)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	// Attach push subscriptions for every followed list
	if err := s.syncEngine.Activate(context.Background()); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to activate sync engine")
	}

	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	// Close push subscriptions before the queue so no reconciliation lands
	// mid-teardown
	if s.syncEngine != nil {
		s.syncEngine.Deactivate()
	}

	if s.queueEngine != nil {
		s.queueEngine.Close()
	}

	// Check if server was started before attempting shutdown
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
