// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/DepositFlow/pkg/config"
	"github.com/AleutianAI/DepositFlow/pkg/logging"
	"github.com/AleutianAI/DepositFlow/pkg/telemetry"
	"github.com/AleutianAI/DepositFlow/pkg/validation"
	"github.com/AleutianAI/DepositFlow/services/submission/autosave"
	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
	"github.com/AleutianAI/DepositFlow/services/submission/dispatch"
	"github.com/AleutianAI/DepositFlow/services/submission/effects"
	"github.com/AleutianAI/DepositFlow/services/submission/formstate"
	"github.com/AleutianAI/DepositFlow/services/submission/notifications"
	"github.com/AleutianAI/DepositFlow/services/submission/patch"
	"github.com/AleutianAI/DepositFlow/services/submission/restclient"
	"github.com/AleutianAI/DepositFlow/services/submission/store"
)

// runServe wires the engine together and blocks until SIGINT/SIGTERM.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	scope := datatypes.ScopeType(scopeFlag)
	if scope != datatypes.ScopeWorkspaceItem && scope != datatypes.ScopeWorkflowItem {
		return fmt.Errorf("unknown scope %q", scopeFlag)
	}

	// JSON logs when piped, text when a human is watching, unless the
	// config forces JSON.
	jsonLogs := cfg.Logging.JSON || !isatty.IsTerminal(os.Stderr.Fd())
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: "depositd",
		JSON:    jsonLogs,
	})
	defer logger.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.New(registry)

	queue := patch.NewOperationQueue()
	forms := formstate.NewMemory()
	notifier := notifications.NewSlogNotifier(logger.Slog())

	var clientOpts []restclient.Option
	if cfg.Repository.RateLimitPerSecond > 0 {
		clientOpts = append(clientOpts, restclient.WithRateLimit(cfg.Repository.RateLimitPerSecond, 1))
	}
	if timeout := cfg.Repository.RequestTimeout.Std(); timeout > 0 {
		clientOpts = append(clientOpts, restclient.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	client := restclient.NewClient(restclient.Endpoints{
		WorkspaceItems: cfg.Repository.WorkspaceItemsURL,
		WorkflowItems:  cfg.Repository.WorkflowItemsURL,
	}, clientOpts...)

	dispatcher := dispatch.New(store.NewStore(), logger.Slog())
	dispatcher.Register(effects.New(effects.Config{
		Scope:    scope,
		Queue:    queue,
		Client:   client,
		Notifier: notifier,
		Forms:    forms,
		Logger:   logger.Slog(),
		Metrics:  metrics,
	}))

	timer := autosave.NewTimer(dispatcher, cfg.Autosave.Interval.Std(), logger.Slog())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatcher.Start(ctx); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, func(next config.Config) {
			// Only the autosave interval applies at runtime; everything
			// else needs a restart.
			timer.SetInterval(next.Autosave.Interval.Std())
		}, logger.Slog())
		if err != nil {
			logger.Warn("config watch disabled", "error", err)
		} else {
			group.Go(func() error {
				watcher.Start(groupCtx)
				return nil
			})
		}
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(dispatcher, registry, jsonLogs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		logger.Info("debug listener started", "addr", cfg.Server.Addr, "scope", string(scope))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		timer.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("listener shutdown", "error", err)
		}
		return dispatcher.Stop(shutdownCtx)
	})

	return group.Wait()
}

// newRouter builds the debug HTTP surface: liveness, Prometheus
// metrics, and a read-only snapshot of the submission store.
func newRouter(dispatcher *dispatch.Dispatcher, registry *prometheus.Registry, jsonLogs bool) *gin.Engine {
	if jsonLogs {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	router.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, dispatcher.Store().State())
	})

	router.GET("/state/:submissionID", func(c *gin.Context) {
		id := c.Param("submissionID")
		if err := validation.ValidateResourceID(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		entry, ok := dispatcher.Store().Entry(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown submission"})
			return
		}
		c.JSON(http.StatusOK, entry)
	})

	return router
}
