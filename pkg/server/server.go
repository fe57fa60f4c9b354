// Copyright 2026 Nyx Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the orchestrator and the motivational engine
// over REST at /api/v1, with a per-workflow SSE progress stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/pkg/motivation"
	"github.com/nyx-labs/nyx/pkg/orchestration"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

// Orchestrator is the workflow surface the server fronts. The top-level
// orchestrator satisfies it.
type Orchestrator interface {
	ExecuteWorkflow(ctx context.Context, input *types.WorkflowInput) (*types.WorkflowResult, error)
	WorkflowStatus(id string) (*orchestration.WorkflowStatus, bool)
	ActiveWorkflows(limit, offset int) []*orchestration.WorkflowStatus
}

// MotivationEngine is the engine surface the server fronts.
type MotivationEngine interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() motivation.Status
	Configure(settings motivation.Settings) error
	Boost(ctx context.Context, kind string, amount float64, reason string, metadata map[string]interface{}) error
}

// TreeReader reads persisted workflow trees. The status endpoint falls
// back to it for workflows that finished before a restart.
type TreeReader interface {
	GetThoughtTree(ctx context.Context, id string) (*storage.ThoughtTree, error)
}

// DriveReader reads drive state for the motivational endpoints.
type DriveReader interface {
	GetMotivationalState(ctx context.Context, kind string) (*storage.MotivationalState, error)
	ListMotivationalStates(ctx context.Context, activeOnly bool) ([]*storage.MotivationalState, error)
}

// Info describes the running instance for /system/info.
type Info struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Provider string `json:"llm_provider,omitempty"`
	Model    string `json:"llm_model,omitempty"`
}

// Config wires the HTTP server.
type Config struct {
	Host string
	Port int

	// APIKey enables bearer auth when non-empty. The health endpoint is
	// always exempt.
	APIKey string

	Orchestrator Orchestrator
	Engine       MotivationEngine
	Drives       DriveReader
	Trees        TreeReader
	Info         Info

	CORS   CORSConfig
	Logger *zap.Logger
}

// Server is the REST + SSE front end.
type Server struct {
	cfg        Config
	router     chi.Router
	httpServer *http.Server
	events     *eventHub
	logger     *zap.Logger
	started    time.Time
}

// New builds the server and its routing table.
func New(cfg Config) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, types.NewError(types.ErrValidation, "server requires an orchestrator")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8420
	}
	if !cfg.CORS.Enabled && len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS = DefaultCORSConfig()
	}

	s := &Server{
		cfg:    cfg,
		events: newEventHub(),
		logger: cfg.Logger,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// No write timeout; SSE streams stay open.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Handler exposes the routing table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// PublishProgress routes a workflow progress event onto its SSE stream.
// Wire it as the orchestrator's progress callback.
func (s *Server) PublishProgress(event types.ProgressEvent) {
	s.events.publish(event)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)
	r.Use(s.corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/system/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/orchestrator", func(r chi.Router) {
				r.Post("/workflows/execute", s.handleExecuteWorkflow)
				r.Get("/workflows/active", s.handleActiveWorkflows)
				r.Get("/workflows/{id}/status", s.handleWorkflowStatus)
				r.Get("/workflows/{id}/events", s.handleWorkflowEvents)
				r.Get("/strategies", s.handleStrategies)
				r.Get("/input-types", s.handleInputTypes)
			})

			r.Route("/motivational", func(r chi.Router) {
				r.Post("/engine/start", s.handleEngineStart)
				r.Post("/engine/stop", s.handleEngineStop)
				r.Put("/engine/config", s.handleEngineConfig)
				r.Get("/engine/status", s.handleEngineStatus)
				r.Get("/states", s.handleListStates)
				r.Get("/states/{type}", s.handleGetState)
				r.Post("/states/{type}/boost", s.handleBoost)
			})

			r.Get("/system/status", s.handleSystemStatus)
			r.Get("/system/info", s.handleSystemInfo)
		})
	})
	return r
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.started = time.Now().UTC()
	s.logger.Info("http server listening",
		zap.String("addr", s.httpServer.Addr),
		zap.Bool("auth", s.cfg.APIKey != ""))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests and closes the SSE streams.
func (s *Server) Stop(ctx context.Context) error {
	s.events.close()
	return s.httpServer.Shutdown(ctx)
}
