package server

import (
	"context"
	"encoding/json"
	"net/http"

	"slack-confessions/internal/config"
	"slack-confessions/internal/crash"
	"slack-confessions/internal/handler"
	"slack-confessions/internal/logger"
)

// WebhookServer represents the webhook HTTP server
type WebhookServer struct {
	server   *http.Server
	certFile string
	keyFile  string
}

// New builds the webhook server: the Slack endpoints plus an optional
// health path reporting uptime and processing counters.
func New(cfg *config.Config, h *handler.Handler) *WebhookServer {
	mux := http.NewServeMux()
	h.Register(mux)

	if cfg.Server.HealthPath != "" {
		mux.HandleFunc(cfg.Server.HealthPath, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(handler.GetProcessingStats())
		})
	}

	return &WebhookServer{
		server: &http.Server{
			Addr:    "0.0.0.0:" + cfg.Server.ListenPort,
			Handler: crash.HTTPMiddleware(mux),
		},
		certFile: cfg.Server.CertFile,
		keyFile:  cfg.Server.KeyFile,
	}
}

// Start starts the webhook server
func (ws *WebhookServer) Start() error {
	logger.Infof("Starting HTTP server on %s", ws.server.Addr)

	// Determine if we should use TLS
	if ws.certFile != "" && ws.keyFile != "" {
		logger.Infof("Using TLS with cert: %s, key: %s", ws.certFile, ws.keyFile)
		return ws.server.ListenAndServeTLS(ws.certFile, ws.keyFile)
	}

	logger.Infof("WARNING: Running without TLS. Make sure you have a HTTPS proxy in front of this server")
	return ws.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (ws *WebhookServer) Shutdown(ctx context.Context) error {
	return ws.server.Shutdown(ctx)
}
