package main

import (
	"civic-stream/auth"
	"civic-stream/infrastructure/grpc/relay"
	"civic-stream/infrastructure/grpc/store"
	"civic-stream/internal"
	"civic-stream/repositories"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run serves the broker relay and the durable store shared by every delivery instance.
func run() (int, error) {
	_ = godotenv.Load()
	var config internal.RelayConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := internal.Validate(config); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	eventLog, err := repositories.NewEventLog(db, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = eventLog.Close() }()

	address := config.Address()
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	tokens := auth.NewTokens(config.JWTSecret)
	s := grpc.NewServer(
		grpc.UnaryInterceptor(auth.UnaryInterceptor(tokens)),
		grpc.StreamInterceptor(auth.StreamInterceptor(tokens)),
	)
	hub := relay.NewServer(log, config.SubscriberBuffer)
	relay.RegisterRelayServiceServer(s, hub)
	store.RegisterStoreServiceServer(s, store.NewServer(log, eventLog,
		repositories.NewDedupLedger(db, log, config.AckRetention), repositories.NewPresenceRepository(db)))

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay", "address", address, "at", time.Now().UTC())
		if err := s.Serve(listener); err != nil && err != grpc.ErrServerStopped {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return exitRuntime, err
	}

	// Subscribe streams only end once the hub is closed.
	hub.Close()
	s.GracefulStop()
	log.Info("Relay stopped cleanly")
	return exitOK, nil
}
