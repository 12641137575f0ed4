package internal

import (
	"civic-stream/domain"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the delivery server configuration, loaded from the environment.
type Config struct {
	LogLevel string `env:"LOG_LEVEL,required=true" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	// BadgerFilepath is only read when no relay is configured; with a relay the relay owns the store.
	BadgerFilepath string `env:"BADGER_FILEPATH" validate:"required_without=RelayAddress"`
	Host           string `env:"HOST,default=localhost"`
	Port           int    `env:"PORT,default=8080" validate:"gt=0,lt=65536"`
	JWTSecret      string `env:"JWT_SECRET,required=true" validate:"min=16"`
	// InstanceID defaults to a random id at startup when empty.
	InstanceID string `env:"INSTANCE_ID"`

	// RelayAddress enables the cross-instance bridge and the shared store; empty runs single-instance.
	RelayAddress string        `env:"RELAY_ADDRESS"`
	RelayToken   string        `env:"RELAY_TOKEN" validate:"required_with=RelayAddress"`
	BridgeTopic  string        `env:"BRIDGE_TOPIC,default=civic-stream.events" validate:"required"`
	MaxListeners int           `env:"MAX_LISTENERS_PER_CHANNEL,default=512" validate:"gt=0"`
	RestartDelay time.Duration `env:"RESTART_DELAY,default=1s" validate:"gt=0"`

	HeartbeatInteractive  time.Duration `env:"HEARTBEAT_INTERACTIVE,default=2s" validate:"gt=0"`
	HeartbeatPersonal     time.Duration `env:"HEARTBEAT_PERSONAL,default=10s" validate:"gt=0"`
	HeartbeatLowFrequency time.Duration `env:"HEARTBEAT_LOW_FREQUENCY,default=15s" validate:"gt=0"`
	QueueSize             int           `env:"SESSION_QUEUE_SIZE,default=256" validate:"gt=0"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	SuppressEcho          bool          `env:"SUPPRESS_ECHO,default=false"`
	ShutdownGrace         time.Duration `env:"SHUTDOWN_GRACE,default=10s" validate:"gt=0"`

	PresenceTTL           time.Duration `env:"PRESENCE_TTL,default=45s" validate:"gt=0"`
	PresenceSweepInterval time.Duration `env:"PRESENCE_SWEEP_INTERVAL,default=10s" validate:"gt=0"`
	HealthReportInterval  time.Duration `env:"HEALTH_REPORT_INTERVAL,default=1m" validate:"gt=0"`

	CatchupLimit     int           `env:"CATCHUP_LIMIT,default=200" validate:"gt=0,lte=500"`
	CatchupTimeout   time.Duration `env:"CATCHUP_TIMEOUT,default=5s" validate:"gt=0"`
	AckRetention     time.Duration `env:"ACK_RETENTION,default=168h" validate:"gt=0"`
	SnapshotLookback time.Duration `env:"SNAPSHOT_LOOKBACK,default=24h" validate:"gte=0"`
	SnapshotLimit    int           `env:"SNAPSHOT_LIMIT,default=50" validate:"gte=0"`

	// DebugPort serves the store inspection endpoint on localhost, 0 disables it.
	DebugPort int `env:"DEBUG_PORT,default=0" validate:"gte=0,lt=65536"`
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) Heartbeats() domain.HeartbeatPolicy {
	return domain.HeartbeatPolicy{
		Interactive:  c.HeartbeatInteractive,
		Personal:     c.HeartbeatPersonal,
		LowFrequency: c.HeartbeatLowFrequency,
	}
}

// RelayConfig configures the standalone broker relay.
type RelayConfig struct {
	LogLevel  string `env:"LOG_LEVEL,required=true" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Host      string `env:"HOST,default=localhost"`
	Port      int    `env:"RELAY_PORT,default=9090" validate:"gt=0,lt=65536"`
	JWTSecret string `env:"JWT_SECRET,required=true" validate:"min=16"`
	// SubscriberBuffer bounds the queue of each subscriber; a full queue drops that subscriber.
	SubscriberBuffer int `env:"RELAY_SUBSCRIBER_BUFFER,default=1024" validate:"gt=0"`
	// BadgerFilepath holds the store shared by every delivery instance.
	BadgerFilepath string        `env:"BADGER_FILEPATH,required=true" validate:"required"`
	AckRetention   time.Duration `env:"ACK_RETENTION,default=168h" validate:"gt=0"`
}

func (c RelayConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

var validate = validator.New()

// Validate checks a loaded configuration struct.
func Validate(config any) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
