package main

import (
	"context"
	stderrors "errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"sheetdiff/internal"
	"sheetdiff/internal/config"
	"sheetdiff/internal/container"
)

// shutdownGrace bounds how long in-flight comparisons may finish after a signal
const shutdownGrace = 30 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	logger := container.NewLogger(appConfig.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(ctx, appConfig, logger)
	if err != nil {
		logger.Error("Failed to create application container: %v", err)
		os.Exit(1)
	}
	defer appContainer.Shutdown(context.Background())

	if err := os.MkdirAll(appConfig.Server.ResultsDir, 0o755); err != nil {
		logger.Error("Failed to create results directory %s: %v", appConfig.Server.ResultsDir, err)
		os.Exit(1)
	}

	var admin *http.Server
	if appConfig.Profiling.Enabled {
		admin = &http.Server{Addr: ":" + appConfig.Profiling.Port, Handler: adminRouter()}
		go serve(admin, logger, "profiling")
		logger.Info("View profiles: go tool pprof -http=:8081 http://localhost:%s/debug/pprof/profile?seconds=30", appConfig.Profiling.Port)
	}

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           appContainer.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go serve(server, logger, "api")
	logger.Info("Starting sheetdiff server on port %s (results in %s)", appConfig.Server.Port, appConfig.Server.ResultsDir)

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api server shutdown: %v", err)
	}
	if err := appContainer.Server.Wait(shutdownCtx); err != nil {
		logger.Warn("background comparisons still running at exit: %v", err)
	}
	if admin != nil {
		admin.Shutdown(shutdownCtx)
	}
}

// adminRouter serves pprof and a liveness probe on the profiling port
func adminRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Mount("/debug", middleware.Profiler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}

func serve(srv *http.Server, logger *internal.Logger, name string) {
	logger.Info("%s server listening on %s", name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		logger.Error("%s server failed: %v", name, err)
		os.Exit(1)
	}
}
