// Command docket-web serves the read-only archive browsing API over an
// ingested database. It never mutates the archive; docket-ingest owns writes.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/docket/internal/config"
	"github.com/scrypster/docket/internal/server"
	"github.com/scrypster/docket/internal/storage/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbPath := flag.String("db", cfg.Storage.DBPath, "Path to the archive database")
	host := flag.String("host", cfg.Server.Host, "Host to listen on")
	port := flag.Int("port", cfg.Server.Port, "Port to listen on")
	flag.Parse()

	cfg.Server.Host = *host
	cfg.Server.Port = *port

	store, err := sqlite.NewArchiveStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open archive database: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := server.Start(ctx, cfg, store)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Docket archive API running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second)
}
