package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/djval79/caresync1/internal/http"
	"github.com/djval79/caresync1/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(ctx)
		},
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (a *app) serve(ctx context.Context) error {
	log := a.logger
	loc := a.cfg.Location()

	metrics := httpapi.NewMetrics()
	pub := a.publishers(ctx, metrics)
	if a.mqtt != nil {
		log.Info("mqtt event fan-out enabled", zap.Bool("connected", a.mqtt.IsConnected()))
	}

	gen := service.NewShiftGenerator(loc)
	roster := service.NewRosterService(a.state, gen, pub, log)
	emar := service.NewEmarService(a.state, pub, loc, log)
	directory := service.NewDirectoryService(a.state)
	finance := service.NewFinanceService(a.state)

	var provider service.InsightProvider
	if a.cfg.Insights.APIKey != "" {
		p, err := service.NewGeminiInsightProvider(ctx, a.cfg.Insights.APIKey, a.cfg.Insights.Model, a.cfg.Insights.BaseURL)
		if err != nil {
			log.Warn("gemini client unavailable, insights use fallback", zap.Error(err))
		} else {
			provider = p
		}
	}
	insights := service.NewInsightService(a.state, provider, a.cfg.Insights.Timeout, log)

	var identity service.Authenticator
	if a.cfg.Identity.BaseURL != "" {
		identity = service.NewIdentityClient(a.cfg.Identity.BaseURL, a.cfg.Identity.AnonKey, a.cfg.Identity.Timeout, log)
	} else {
		log.Warn("IDENTITY_BASE_URL not set, login is disabled")
	}

	secret := a.cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn("JWT_SECRET not set, using a random secret; sessions end on restart")
		secret = randomSecret()
	}
	tokens := service.NewTokenIssuer(secret, a.cfg.Auth.TokenTTL)

	router := httpapi.NewAPI(tokens, metrics, httpapi.Handlers{
		Auth:     httpapi.NewAuthHandler(identity, tokens, log),
		Staff:    httpapi.NewStaffHandler(roster, directory, log),
		Clients:  httpapi.NewClientHandler(roster, emar, directory, log),
		Shifts:   httpapi.NewShiftHandler(roster, directory, gen, log),
		Emar:     httpapi.NewEmarHandler(emar, log),
		Reports:  httpapi.NewReportHandler(finance, gen, log),
		Overview: httpapi.NewOverviewHandler(directory, insights, metrics, log),
	}, log)

	srv := service.NewServer(a.cfg.HTTP.Addr, router, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	log.Info("caresync started",
		zap.String("addr", a.cfg.HTTP.Addr),
		zap.String("store", a.cfg.Store.Backend),
		zap.String("timezone", loc.String()),
	)

	var runErr error
	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case runErr = <-errChan:
		log.Error("HTTP server error", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP server", zap.Error(err))
	}
	if err := a.state.Flush(shutdownCtx); err != nil {
		log.Error("Final flush failed", zap.Error(err))
	}
	log.Info("Service stopped")
	return runErr
}
