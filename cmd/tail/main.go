package main

import (
	"civic-stream/client"
	"civic-stream/domain"
	"civic-stream/projection"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the tail client environment variables.
type Config struct {
	ServerURL string   `envconfig:"CIVIC_SERVER_URL" default:"http://localhost:8080"`
	Token     string   `envconfig:"CIVIC_TOKEN" required:"true"`
	Channels  []string `envconfig:"CIVIC_CHANNELS" required:"true"`
	ClientID  string   `envconfig:"CIVIC_CLIENT_ID" default:"tail"`
	PendingDB string   `envconfig:"CIVIC_PENDING_DB" default:":memory:"`
	ViewerID  string   `envconfig:"CIVIC_VIEWER_ID"`
	AckFrames bool     `envconfig:"CIVIC_ACK" default:"true"`
	LogLevel  string   `envconfig:"LOG_LEVEL" default:"INFO"`
}

// printer logs every entity the cache changes.
type printer struct {
	log *slog.Logger
}

func (p printer) Observe(resource string, e projection.Entity) {
	p.log.Info("Entity", "resource", resource, "id", e.ID, "author", e.AuthorID,
		"ordering_key", e.OrderingKey, "status", lo.Ternary(e.IsConfirmed(), "confirmed", string(e.LocalStatus)),
		"fields", e.Fields)
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Tail error: %v\n", err)
	}
	os.Exit(code)
}

// run follows the given channels and prints the merged projection as it changes.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	channels := make([]domain.Channel, 0, len(config.Channels))
	for _, key := range config.Channels {
		ch, err := domain.ParseChannel(key)
		if err != nil {
			return exitConfig, err
		}
		channels = append(channels, ch)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := projection.OpenPendingStore(config.PendingDB)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = store.Close() }()

	cache := projection.NewCache(log, store)
	cache.AddObserver(printer{log: log})
	var inbox *projection.Inbox
	if config.ViewerID != "" {
		inbox = projection.NewInbox(config.ViewerID)
		cache.AddObserver(inbox)
	}
	if _, err := cache.Rehydrate(ctx); err != nil {
		return exitRuntime, fmt.Errorf("rehydrate failed: %w", err)
	}

	syncer := client.NewSyncer(log, client.New(log, config.ServerURL, config.Token, nil), cache, client.SyncerOptions{
		Channels:  channels,
		ClientID:  config.ClientID,
		AckFrames: config.AckFrames,
	})
	log.Info(">>> Following", "server", config.ServerURL, "channels", config.Channels)
	if err := syncer.Run(ctx); err != nil {
		return exitRuntime, err
	}

	if inbox != nil {
		for _, item := range inbox.Items() {
			log.Info("Inbox", "resource", item.Resource, "unread", item.Unread, "last_activity", item.LastActivity)
		}
	}
	log.Info("Stopped", "watermark", syncer.Watermark())
	return exitOK, nil
}
