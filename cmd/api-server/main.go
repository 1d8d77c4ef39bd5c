package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ganjhub/internal/archive"
	"ganjhub/internal/auth"
	"ganjhub/internal/contact"
	"ganjhub/internal/resolver"
	"ganjhub/internal/search"
	"ganjhub/internal/store"
	"ganjhub/pkg/database"
	"ganjhub/pkg/utils"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := utils.LoadServerConfig()
	dbCfg := database.DefaultConfig()

	// A missing or broken local store degrades to remote-only serving:
	// store-backed routes answer 503, everything else keeps working.
	db, err := database.Open(dbCfg)
	if err != nil {
		log.Error().Err(err).Str("path", dbCfg.Path).Msg("local store unavailable, serving remote-only")
		db = nil
	} else {
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("db migrate failed")
		}
	}

	archiveClient := archive.NewClient(cfg.ArchiveBaseURL)

	var (
		repo        *store.Repo
		resolverSt  resolver.Store
		searchSt    search.Store
		contactRepo *contact.Repo
	)
	if db != nil {
		repo = store.NewRepo(db, log)
		resolverSt = repo
		searchSt = repo
		contactRepo = contact.NewRepo(db)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "absent", "mode": "remote-only"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db_error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok"})
	})

	// Entity routes (hybrid local/remote)
	res := resolver.New(resolverSt, archiveClient, log)
	resolver.NewHandler(res).RegisterRoutes(router)

	// Unified search
	engine := search.NewEngine(searchSt, archiveClient, log)
	engine.MaxScanCategories = cfg.ScanCategories
	search.NewHandler(engine).RegisterRoutes(router.Group("/search"))

	// Contact (public write-only)
	contactHandler := contact.NewHandler(contactRepo)
	contactHandler.RegisterRoutes(router.Group("/contact"))

	// Privileged tier
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	adminPublic := router.Group("/admin")
	auth.NewHandler(tokenSvc, authCfg).RegisterRoutes(adminPublic)

	adminProtected := router.Group("/admin")
	adminProtected.Use(auth.AuthMiddleware(tokenSvc))
	contactHandler.RegisterAdminRoutes(adminProtected)

	httpSrv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("HTTP API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	log.Info().Msg("server stopped")
}
