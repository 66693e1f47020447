package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dinerhq/pos-api/internal/approval"
	"github.com/dinerhq/pos-api/internal/config"
	"github.com/dinerhq/pos-api/internal/database"
	"github.com/dinerhq/pos-api/internal/events"
	"github.com/dinerhq/pos-api/internal/exchange"
	"github.com/dinerhq/pos-api/internal/router"
	"github.com/dinerhq/pos-api/internal/service"
	"github.com/dinerhq/pos-api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log, err := newLogger(cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(format string) (*zap.Logger, error) {
	if format == "console" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("connected to database")

	lookups := service.NewLookups(database.New(pool))

	var rateCache exchange.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		rateCache = exchange.NewRedisCache(rdb, cfg.RateCacheTTL)
		log.Info("exchange rate cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	hub := ws.NewHub(log)
	fanout := events.NewFanout(log).
		Route("ws", events.NewWSPublisher(hub), events.OrderUpdated, events.KitchenTicket, events.OrderFinalized, events.ShiftClosed)

	if cfg.AMQPURL != "" {
		conn, err := amqp091.Dial(cfg.AMQPURL)
		if err != nil {
			return fmt.Errorf("dial amqp: %w", err)
		}
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("open amqp channel: %w", err)
		}
		defer ch.Close()
		if err := events.DeclareExchange(ch, cfg.AMQPKitchenExchange); err != nil {
			return err
		}
		fanout.Route("amqp", events.NewAMQPPublisher(ch, cfg.AMQPKitchenExchange), events.KitchenTicket)
		log.Info("kitchen tickets enabled", zap.String("exchange", cfg.AMQPKitchenExchange))
	}

	if len(cfg.KafkaBrokers) > 0 {
		w := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		defer w.Close()
		fanout.Route("kafka", events.NewKafkaPublisher(w), events.OrderFinalized, events.ShiftClosed)
		log.Info("order sink enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrderTopic))
	}

	deps := service.Deps{
		Gate:   approval.NewGate(lookups, approval.NewBcryptVerifier(lookups), cfg.LookupTimeout),
		Rates:  exchange.NewResolver(lookups, rateCache, cfg.LookupTimeout, log),
		Events: fanout,
		Log:    log,
	}
	orders := service.NewOrderService(pool, service.QueriesStore, deps, cfg.OrderNumberPrefix)
	shifts := service.NewShiftService(pool, service.QueriesStore, deps)
	sweeper := service.NewSweeper(shifts, cfg.SweepInterval, cfg.ShiftMaxAge, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, orders, shifts, hub, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
