package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/danielhkuo/chainelect/cliparse"
	"github.com/danielhkuo/chainelect/db"
	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/feed"
	"github.com/danielhkuo/chainelect/router"
	"github.com/danielhkuo/chainelect/store"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		slog.Error("storage setup failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer backend.Close()
	slog.Info("Storage ready", "type", cfg.DatabaseType)

	hub := feed.NewHub(0)
	mgr := election.NewManager(backend, election.Options{
		Duration:              cfg.VotingDuration,
		ResetClearsCandidates: cfg.ResetClearsCandidates,
		Publisher:             hub,
	})

	ctx := context.Background()
	n, err := mgr.Load(ctx)
	if err != nil {
		slog.Error("loading elections failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Elections loaded", "count", n)

	if cfg.DefaultElection != "" {
		_, err := mgr.Create(ctx, cfg.DefaultElection, cfg.DeployerAddress, cfg.VotingDuration)
		switch {
		case err == nil:
			slog.Info("Default election deployed", "election_id", cfg.DefaultElection, "deployer", cfg.DeployerAddress)
		case errors.Is(err, election.ErrElectionExists):
		default:
			slog.Error("default election deploy failed", "election_id", cfg.DefaultElection, "error", err)
			os.Exit(1)
		}
	}

	// Create router
	mux := router.NewRouter(mgr, backend, hub, cfg)

	// Create server
	server := http.Server{
		Handler: mux,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// openBackend connects the configured storage and prepares its schema
func openBackend(cfg cliparse.Config) (store.Backend, error) {
	if cfg.DatabaseType == "leveldb" {
		ls, err := store.OpenLevel(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return ls, nil
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return store.NewSQLStore(conn), nil
}
