// Command lapsight serves the telemetry coaching API: upload an
// iRacing .ibt capture, get back corner-by-corner coaching.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lapsight-data/lapsight/internal/coach"
	"github.com/lapsight-data/lapsight/internal/config"
	"github.com/lapsight-data/lapsight/internal/trackdb"
	"github.com/lapsight-data/lapsight/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "Listen address")
	dbFile        = flag.String("db", "lapsight.db", "Path to the sqlite database")
	migrationsDir = flag.String("migrations", "", "Apply migrations from this directory before serving")
	tuningFile    = flag.String("tuning", "", "Optional detection tuning overrides (JSON)")
	showVersion   = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("lapsight", version.String())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	db, err := trackdb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if *migrationsDir != "" {
		if err := db.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	analyzer := coach.New(trackdb.NewRegistry(db))
	if *tuningFile != "" {
		tuning, err := config.LoadTuningConfig(*tuningFile)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		analyzer.SetTuning(tuning.Apply)
	}

	server := NewServer(db, analyzer)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: server.ServeMux(),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("lapsight %s listening on %s", version.String(), *listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	wg.Wait()
}
