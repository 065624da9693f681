// Package config holds the settings of the rbtree server.
//
// Values come from Default, then RBT_* environment variables, then
// command-line flags; later sources win.
package config

import (
	"flag"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"rbtengine/infra/kafka"
)

type Config struct {
	GRPC        GRPC
	Metrics     Metrics
	Outbox      Outbox
	Kafka       Kafka
	Broadcaster Broadcaster
	Log         Log
}

type GRPC struct {
	Addr string
}

type Metrics struct {
	// Addr serves /metrics; empty disables the endpoint.
	Addr string
}

type Outbox struct {
	Enabled bool
	Dir     string
	NoSync  bool
}

type Kafka struct {
	Enabled bool
	Driver  string
	Brokers []string
	Topic   string
}

type Broadcaster struct {
	Interval   time.Duration
	MaxRetries uint32
}

type Log struct {
	Level  string
	Format string
}

// Default returns a configuration that runs a standalone server with no
// outbox and no Kafka.
func Default() Config {
	return Config{
		GRPC:    GRPC{Addr: ":50051"},
		Metrics: Metrics{Addr: ":9100"},
		Outbox:  Outbox{Dir: "./outbox_data"},
		Kafka: Kafka{
			Driver:  kafka.DriverSarama,
			Brokers: []string{"localhost:9092"},
			Topic:   "rbtree.events",
		},
		Broadcaster: Broadcaster{
			Interval:   250 * time.Millisecond,
			MaxRetries: 5,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load builds a Config from defaults, the environment (looked up through
// getenv) and args. It does not validate.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("rbtree-server", flag.ContinueOnError)
	fs.StringVar(&cfg.GRPC.Addr, "grpc-addr", cfg.GRPC.Addr, "gRPC listen address")
	fs.StringVar(&cfg.Metrics.Addr, "metrics-addr", cfg.Metrics.Addr, "metrics listen address (empty disables)")
	fs.BoolVar(&cfg.Outbox.Enabled, "outbox", cfg.Outbox.Enabled, "record mutation events in the outbox")
	fs.StringVar(&cfg.Outbox.Dir, "outbox-dir", cfg.Outbox.Dir, "outbox directory")
	fs.BoolVar(&cfg.Outbox.NoSync, "outbox-nosync", cfg.Outbox.NoSync, "skip fsync on outbox writes")
	fs.BoolVar(&cfg.Kafka.Enabled, "kafka", cfg.Kafka.Enabled, "publish outbox events to Kafka")
	fs.StringVar(&cfg.Kafka.Driver, "kafka-driver", cfg.Kafka.Driver, "Kafka client: sarama or kafka-go")
	brokers := fs.String("kafka-brokers", strings.Join(cfg.Kafka.Brokers, ","), "comma-separated broker list")
	fs.StringVar(&cfg.Kafka.Topic, "kafka-topic", cfg.Kafka.Topic, "topic for mutation events")
	fs.DurationVar(&cfg.Broadcaster.Interval, "broadcast-interval", cfg.Broadcaster.Interval, "outbox drain interval")
	retries := fs.Uint("broadcast-max-retries", uint(cfg.Broadcaster.MaxRetries), "publish attempts per event")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format: text or json")

	if err := fs.Parse(args); err != nil {
		return Config{}, errors.Wrap(err, "parse flags")
	}
	if *retries > math.MaxUint32 {
		return Config{}, errors.Newf("broadcast-max-retries %d out of range", *retries)
	}
	cfg.Kafka.Brokers = splitList(*brokers)
	cfg.Broadcaster.MaxRetries = uint32(*retries)
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if getenv == nil {
		return nil
	}
	str := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		if v := getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.Wrapf(err, "%s", name)
			}
			*dst = b
		}
		return nil
	}

	str("RBT_GRPC_ADDR", &c.GRPC.Addr)
	str("RBT_METRICS_ADDR", &c.Metrics.Addr)
	str("RBT_OUTBOX_DIR", &c.Outbox.Dir)
	str("RBT_KAFKA_DRIVER", &c.Kafka.Driver)
	str("RBT_KAFKA_TOPIC", &c.Kafka.Topic)
	str("RBT_LOG_LEVEL", &c.Log.Level)
	str("RBT_LOG_FORMAT", &c.Log.Format)
	if v := getenv("RBT_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if err := boolean("RBT_OUTBOX", &c.Outbox.Enabled); err != nil {
		return err
	}
	if err := boolean("RBT_OUTBOX_NOSYNC", &c.Outbox.NoSync); err != nil {
		return err
	}
	if err := boolean("RBT_KAFKA", &c.Kafka.Enabled); err != nil {
		return err
	}
	if v := getenv("RBT_BROADCAST_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(err, "RBT_BROADCAST_INTERVAL")
		}
		c.Broadcaster.Interval = d
	}
	if v := getenv("RBT_BROADCAST_MAX_RETRIES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return errors.Wrap(err, "RBT_BROADCAST_MAX_RETRIES")
		}
		c.Broadcaster.MaxRetries = uint32(n)
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.GRPC.Addr == "" {
		return errors.New("config: grpc address is empty")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "config: log level")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.Newf("config: unknown log format %q", c.Log.Format)
	}
	if c.Outbox.Enabled && c.Outbox.Dir == "" {
		return errors.New("config: outbox enabled without a directory")
	}
	if !c.Kafka.Enabled {
		return nil
	}
	if !c.Outbox.Enabled {
		return errors.New("config: kafka publishing needs the outbox")
	}
	if c.Kafka.Driver != kafka.DriverSarama && c.Kafka.Driver != kafka.DriverWriter {
		return errors.Wrapf(kafka.ErrUnknownDriver, "config: %q", c.Kafka.Driver)
	}
	if len(c.Kafka.Brokers) == 0 {
		return errors.New("config: kafka enabled without brokers")
	}
	if c.Kafka.Topic == "" {
		return errors.New("config: kafka enabled without a topic")
	}
	if c.Broadcaster.Interval <= 0 {
		return errors.Newf("config: broadcast interval %s must be positive", c.Broadcaster.Interval)
	}
	return nil
}

// Logger builds the process logger described by c.Log.
func (c Config) Logger() (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	log := logrus.New()
	log.SetLevel(lvl)
	if c.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
