package app

import (
	"context"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-catalog/library/config"
	"github.com/Astemirdum/library-catalog/library/internal/handler"
	"github.com/Astemirdum/library-catalog/library/internal/hub"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/library/internal/server"
	"github.com/Astemirdum/library-catalog/library/internal/service"
	"github.com/Astemirdum/library-catalog/library/migrations"
	"github.com/Astemirdum/library-catalog/pkg/auth"
	"github.com/Astemirdum/library-catalog/pkg/circuit_breaker"
	"github.com/Astemirdum/library-catalog/pkg/kafka"
	"github.com/Astemirdum/library-catalog/pkg/logger"
	"github.com/Astemirdum/library-catalog/pkg/postgres"
	"github.com/Astemirdum/library-catalog/pkg/session"
)

const shutdownTimeout = 5 * time.Second

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	defer db.Close()
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	groups := hub.New(log)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	events := service.NewActivitySink(repo)
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		defer producer.Close()
		cb := circuit_breaker.NewCircuitBreaker(10, 10*time.Second, 0.5, 3)
		events = service.NewKafkaSink(kafka.NewEnqueuer(producer, cb))
	}

	svc := service.NewService(repo, groups, events, tokens, service.Options{
		LoanPeriod:   cfg.Library.LoanPeriod,
		ReviewPolicy: cfg.Library.ReviewPolicy,
	}, log)

	sessions := session.NewManager(postgres.StdDB(db), session.Config{
		Lifetime:      cfg.Auth.SessionLifetime,
		SecureCookies: cfg.Auth.SecureCookies,
	})
	h := handler.New(svc, groups, sessions, tokens, handler.Config{
		CSRFKey:       []byte(cfg.Auth.CSRFKey),
		SecureCookies: cfg.Auth.SecureCookies,
	}, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr",
				net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		return srv.Run()
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Debug("Graceful shutdown")
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if cfg.Kafka.Enabled() {
		consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.LibraryConsumerGroup)
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
		eg.Go(func() error {
			return kafka.Consume(ctx, consumer, handler.NewConsumer(svc.RecordEvent, log), kafka.LibraryTopic)
		})
	}

	scheduler, err := newOverdueScanner(cfg.Library.OverdueScanSpec, svc, log)
	if err != nil {
		log.Fatal("overdue scanner", zap.Error(err))
	}
	eg.Go(func() error {
		scheduler.Start()
		<-ctx.Done()
		<-scheduler.Stop().Done()
		return nil
	})

	if err := eg.Wait(); err != nil {
		log.Error("library stopped", zap.Error(err))
		return
	}
	log.Info("Graceful shutdown finished")
}

// newOverdueScanner schedules the overdue notice scan. Overlapping runs are skipped.
func newOverdueScanner(spec string, svc *service.Service, log *zap.Logger) (*cron.Cron, error) {
	cl := cronLogger{log: log.Named("cron").Sugar()}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := svc.ScanOverdue(ctx)
		if err != nil {
			log.Error("overdue scan", zap.Error(err))
			return
		}
		if n > 0 {
			log.Info("overdue scan", zap.Int("notices", n))
		}
	})
	return c, err
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
