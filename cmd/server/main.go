package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"rbtengine/api/grpcserver"
	"rbtengine/config"
	"rbtengine/infra/kafka"
	"rbtengine/infra/outbox"
	"rbtengine/infra/sequence"
	"rbtengine/jobs/broadcaster"
	"rbtengine/service"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatal(err)
	}
	log, err := cfg.Logger()
	if err != nil {
		logrus.Fatal(err)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------- Outbox ----------------

	var ob *outbox.Outbox
	seq := sequence.New(0)
	if cfg.Outbox.Enabled {
		var err error
		ob, err = outbox.Open(cfg.Outbox.Dir, outbox.Options{NoSync: cfg.Outbox.NoSync})
		if err != nil {
			return err
		}
		defer ob.Close()

		last, err := ob.LastSeq()
		if err != nil {
			return errors.Wrap(err, "outbox last seq")
		}
		seq.Resume(last)
		log.WithFields(logrus.Fields{"dir": cfg.Outbox.Dir, "last_seq": last}).Info("outbox opened")
	}

	// ---------------- Service ----------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := service.Options{
		Sequencer:  seq,
		Registerer: reg,
		Logger:     log,
	}
	if ob != nil {
		opts.Outbox = ob
	}
	svc := service.NewTreeService(opts)

	// ---------------- Background Jobs ----------------

	if cfg.Kafka.Enabled {
		pub, err := kafka.New(cfg.Kafka.Driver, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		bc := broadcaster.New(ob, pub, broadcaster.Config{
			Interval:   cfg.Broadcaster.Interval,
			MaxRetries: cfg.Broadcaster.MaxRetries,
		}, log)
		defer bc.Close()
		go bc.Run(ctx)
	}

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		hs := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server")
			}
		}()
		defer hs.Close()
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.GRPC.Addr)
	}

	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor(log)))
	grpcserver.Register(grpcSrv, grpcserver.NewServer(svc))

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		grpcSrv.GracefulStop()
	}()

	log.WithField("addr", lis.Addr().String()).Info("rbtree engine running")
	return grpcSrv.Serve(lis)
}
