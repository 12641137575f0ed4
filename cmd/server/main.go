package main

import (
	"civic-stream/auth"
	"civic-stream/contract"
	"civic-stream/infrastructure/grpc/relay"
	"civic-stream/infrastructure/grpc/store"
	"civic-stream/infrastructure/http/server"
	"civic-stream/internal"
	"civic-stream/observability"
	"civic-stream/repositories"
	"civic-stream/runtime"
	"civic-stream/runtime/workers"
	"civic-stream/services"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Exit codes to provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component explicitly, once, and owns their lifecycle.
// Deferred cleanups run before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := internal.Validate(config); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	if config.InstanceID == "" {
		config.InstanceID = uuid.NewString()
	}
	log = log.With("instance_id", config.InstanceID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Cross-instance relay, optional. It also owns the store shared by every instance.
	var (
		broker   contract.Broker
		eventLog contract.IEventLog
		ledger   contract.IDedupLedger
		presRepo repositories.IPresenceRepository
		db       *badger.DB
	)
	if config.RelayAddress != "" {
		conn, err := grpc.NewClient(config.RelayAddress,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithPerRPCCredentials(auth.BearerCredentials(config.RelayToken)),
		)
		if err != nil {
			return exitRuntime, fmt.Errorf("could not reach relay at %s: %w", config.RelayAddress, err)
		}
		defer func() { _ = conn.Close() }()
		broker = relay.NewClient(conn)
		eventLog = store.NewEventLog(conn)
		ledger = store.NewLedger(conn)
		presRepo = store.NewPresenceRepository(conn)
		log.Info("Using the shared store of the relay", "address", config.RelayAddress)
	} else {
		// 3. Local database (BadgerDB)
		log.Warn("No relay configured, running single-instance")
		var err error
		db, err = badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		local, err := repositories.NewEventLog(db, log)
		if err != nil {
			return exitRuntime, err
		}
		defer func() { _ = local.Close() }()
		eventLog = local
		ledger = repositories.NewDedupLedger(db, log, config.AckRetention)
		presRepo = repositories.NewPresenceRepository(db)
	}

	// 4. Realtime components
	monitor := observability.NewMonitor(log, config.InstanceID)
	bus := runtime.NewBus(log, config.InstanceID, config.MaxListeners, broker, config.BridgeTopic)
	publisher := runtime.NewPublisher(log, eventLog, bus)

	presence := services.NewPresenceTracker(log, presRepo, bus, config.PresenceTTL).WithInstanceID(config.InstanceID)
	if err := presence.Restore(); err != nil {
		return exitRuntime, fmt.Errorf("presence restore failed: %w", err)
	}

	members := auth.NewMembershipRegistry()
	applied, err := members.Rebuild(ctx, eventLog)
	if err != nil {
		return exitRuntime, fmt.Errorf("membership rebuild failed: %w", err)
	}
	log.Info("Conversation memberships rebuilt", "events", applied)
	authorizer := auth.NewChannelAuthorizer(members)

	catchup := services.NewCatchupService(log, eventLog, services.DefaultSources(eventLog, members),
		monitor, config.CatchupLimit, config.CatchupTimeout)

	// 5. Background workers
	supervisor := workers.NewSupervisor(log).WithRestartDelay(config.RestartDelay)
	supervisor.Add(
		workers.NewPresenceSweeperWorker(log, presence, config.PresenceSweepInterval),
		workers.NewHealthReportWorker(log, monitor, presence, bus, config.HealthReportInterval),
	)
	if broker != nil {
		supervisor.Add(workers.NewBridgeWorker(log, broker, config.BridgeTopic, bus))
	}
	supervisorDone := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervisorDone)
	}()

	// 6. HTTP surface
	srv := server.New(server.Deps{
		Log:        log,
		Tokens:     auth.NewTokens(config.JWTSecret),
		Bus:        bus,
		Publisher:  publisher,
		Catchup:    catchup,
		Ack:        services.NewAckService(log, ledger, eventLog, authorizer),
		Presence:   presence,
		Membership: members,
		Authorizer: authorizer,
		Snapshots:  services.NewInboxSnapshots(log, eventLog, ledger, config.SnapshotLookback, config.SnapshotLimit),
		Monitor:    monitor,
	}, server.StreamOptions{
		Heartbeats:   config.Heartbeats(),
		QueueSize:    config.QueueSize,
		WriteTimeout: config.WriteTimeout,
		SuppressEcho: config.SuppressEcho,
	})

	if config.DebugPort > 0 && db != nil {
		debug := &http.Server{
			Addr: fmt.Sprintf("localhost:%d", config.DebugPort),
			Handler: internal.DebugHandler(db, nil, func() any {
				return monitor.Snapshot(presence.GetOnlineCount(), bus.ChannelCount())
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("Starting debug server", "address", debug.Addr)
			if err := debug.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn("Debug server stopped", "error", err)
			}
		}()
		defer func() { _ = debug.Close() }()
	}

	err = srv.Run(ctx, config.Address(), config.ShutdownGrace)

	// 7. Final Cleanup
	stop()
	supervisor.Stop()
	<-supervisorDone
	if err != nil {
		return exitRuntime, fmt.Errorf("http server error: %w", err)
	}
	log.Info("Program stopped cleanly")
	return exitOK, nil
}
