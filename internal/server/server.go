// Package server provides HTTP server initialization and lifecycle
// management for the Docket archive browser.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/docket/internal/config"
	"github.com/scrypster/docket/internal/storage"
	"github.com/scrypster/docket/web/handlers"
)

// Store is the composite storage surface the server reads from. The server
// never mutates the archive; ingestion owns all writes.
type Store interface {
	storage.DocumentStore
	storage.EntityStore
	storage.MediaStore
	storage.SearchProvider
	storage.RunStore
}

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server. Returns the actual address
// being listened on (useful for testing with port 0). The server shuts down
// gracefully when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, store Store) (string, error) {
	documentHandlers := handlers.NewDocumentHandlers(store, store)
	entityHandlers := handlers.NewEntityHandlers(store)
	mediaHandlers := handlers.NewMediaHandlers(store)
	searchHandlers := handlers.NewSearchHandlers(store)
	statsHandlers := handlers.NewStatsHandlers(store, store, store)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/documents", documentHandlers.ListDocuments)
	apiMux.HandleFunc("GET /api/documents/{id}", documentHandlers.GetDocument)
	apiMux.HandleFunc("GET /api/documents/{id}/entities", documentHandlers.ListDocumentEntities)
	apiMux.HandleFunc("GET /api/entities", entityHandlers.ListEntities)
	apiMux.HandleFunc("GET /api/entities/{id}", entityHandlers.GetEntity)
	apiMux.HandleFunc("GET /api/entities/{id}/relationships", entityHandlers.ListEntityRelationships)
	apiMux.HandleFunc("GET /api/albums", mediaHandlers.ListAlbums)
	apiMux.HandleFunc("GET /api/albums/{id}/media", mediaHandlers.ListAlbumMedia)
	apiMux.HandleFunc("GET /api/search", searchHandlers.Search)
	apiMux.HandleFunc("GET /api/stats", statsHandlers.GetStats)

	mux := http.NewServeMux()

	// Health endpoint stays outside auth so monitors can reach it.
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg.Security.APIToken))

	rateLimiter := handlers.NewRateLimiter(float64(cfg.Security.RateLimit), cfg.Security.RateLimit*2)
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
	}()

	return actualAddr, nil
}
