package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/hireboard/internal/auth"
	"github.com/justsurfingit/hireboard/internal/config"
	"github.com/justsurfingit/hireboard/internal/database"
	"github.com/justsurfingit/hireboard/internal/handlers"
	"github.com/justsurfingit/hireboard/internal/logging"
	"github.com/justsurfingit/hireboard/internal/services"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal("loading config", "err", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal("connecting to database", "err", err)
	}

	llmService, err := services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Fatal("creating LLM client", "err", err)
	}
	if llmService == nil {
		logger.Warn("GEMINI_API_KEY not set; AI endpoints return 503 and inbox sync is off")
	}
	jobService := services.NewJobService(db)
	templateService := services.NewTemplateService(db)
	matcherService := services.NewMatcherService(db)

	var gmailService *gmail.Service
	if llmService != nil {
		gmailService = connectGmail(ctx, cfg, logger)
	}
	emailService := services.NewEmailService(db, llmService, gmailService, matcherService, cfg.InboxSyncInterval, logger)

	router := handlers.NewRouter(handlers.RouterConfig{
		APIToken:    cfg.APIToken,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	},
		handlers.NewJobHandler(llmService, jobService),
		handlers.NewTemplateHandler(templateService, llmService),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return emailService.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
	logger.Info("server stopped")
}

// connectGmail returns nil when Gmail is not configured; the inbox sync then
// stays off.
func connectGmail(ctx context.Context, cfg config.ServerConfig, logger *log.Logger) *gmail.Service {
	httpClient, err := auth.GmailClient(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile, os.Stdin, os.Stderr)
	if err != nil {
		logger.Warn("Gmail disabled", "err", err)
		return nil
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		logger.Warn("Gmail disabled: creating service failed", "err", err)
		return nil
	}
	logger.Info("Gmail service connected")
	return svc
}
