package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, deps Deps, logger *logging.Logger) *Server {
	handler := NewHandler(deps)
	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           NewRouter(handler, logger),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// NewRouter builds the route table behind CORS.
func NewRouter(handler *Handler, logger *logging.Logger) http.Handler {
	log := logger.Component("rest")
	router := mux.NewRouter()

	router.Use(RecoveryMiddleware(log))
	router.Use(LoggingMiddleware(log))

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	// Cycles
	api.HandleFunc("/cycles/last", handler.GetLastCycle).Methods("GET")
	api.HandleFunc("/cycles/history", handler.GetCycleHistory).Methods("GET")
	api.HandleFunc("/cycles", handler.TriggerCycle).Methods("POST")
	api.HandleFunc("/scheduler/status", handler.GetSchedulerStatus).Methods("GET")

	// Ledger
	api.HandleFunc("/records", handler.GetRecentRecords).Methods("GET")
	api.HandleFunc("/records/{title}", handler.GetRecord).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
