// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main runs a small HTTP server instrumented with request logging.
//
// Settings come from config.yaml, overridden by APP_* environment variables
// (a .env file is loaded first when present) and, when CONSUL_HTTP_ADDR is
// set, by the Consul key app/config.yaml.
//
//	go run ./example -config example/config.yaml
//	curl localhost:8080/
//	curl localhost:8080/panic
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"rivaas.dev/requestlog"
	"rivaas.dev/requestlog/config"
	"rivaas.dev/requestlog/recovery"
	"rivaas.dev/requestlog/requestid"
)

// ServerSettings is the "Server" configuration section.
type ServerSettings struct {
	Addr            string        `config:"addr" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `config:"shutdowntimeout" validate:"gte=0"`
}

func main() {
	configPath := flag.String("config", "example/config.yaml", "path to the configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfg, err := config.New(
		config.WithFile(*configPath),
		config.WithEnv("APP_"),
		config.WithConsul("app/config.yaml"),
	)
	if err != nil {
		log.Fatalf("failed to create config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = cfg.Load(ctx); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	server := ServerSettings{Addr: ":8080", ShutdownTimeout: 5 * time.Second}
	if err = cfg.Section("Server", &server); err != nil {
		log.Fatalf("failed to bind server settings: %v", err)
	}
	if err = validator.New(validator.WithRequiredStructEnabled()).Struct(server); err != nil {
		log.Fatalf("invalid server settings: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: requestlog.LevelTrace}))

	settings, err := cfg.RequestLogging("")
	if err != nil {
		log.Fatalf("invalid request logging settings: %v", err)
	}

	rl, err := requestlog.New(
		requestlog.WithSettings(settings),
		requestlog.WithLogger(logger),
		requestlog.WithLevelSelector(requestlog.StatusClassLevelSelector),
	)
	if err != nil {
		log.Fatalf("failed to create request logger: %v", err)
	}

	// Recovery sits outside the request logger so a panic is logged as a 500
	// before it is turned into a response.
	handler := recovery.New(recovery.WithLogger(logger))(
		requestid.New()(rl.Middleware(routes())),
	)

	srv := &http.Server{
		Addr:              server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr, "template", rl.Template().Text())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message":    "hello",
			"request_id": requestid.FromContext(r.Context()),
		})
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		user := r.FormValue("user")
		if user == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user is required"})
			return
		}

		requestlog.AddClaims(r.Context(), requestlog.Claim{Type: "sub", Value: user})
		writeJSON(w, http.StatusOK, map[string]string{"user": user})
	})

	mux.HandleFunc("GET /panic", func(http.ResponseWriter, *http.Request) {
		panic("something went wrong")
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errchkjson // best-effort response body
}
