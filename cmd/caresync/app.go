package main

import (
	"context"
	"database/sql"
	"fmt"

	commondb "github.com/djval79/caresync1/common/database"
	"github.com/djval79/caresync1/common/logger"
	commonmqtt "github.com/djval79/caresync1/common/mqtt"
	commonredis "github.com/djval79/caresync1/common/redis"
	"github.com/djval79/caresync1/internal/config"
	"github.com/djval79/caresync1/internal/service"
	"github.com/djval79/caresync1/internal/state"
	"github.com/djval79/caresync1/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// app the wired core shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	coll   *store.Collections
	state  *state.State

	redis *redis.Client
	mqtt  *commonmqtt.Client

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "caresync")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &app{cfg: cfg, logger: log}

	kv, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.coll = store.NewCollections(kv, log)
	a.state, err = state.Load(ctx, a.coll, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (store.KV, error) {
	switch a.cfg.Store.Backend {
	case config.StoreRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return store.NewRedisKV(client), nil
	case config.StorePostgres:
		db, err := commondb.NewPostgresDB(&a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return a.sqlStore(ctx, db, store.DialectPostgres)
	case config.StoreSQLite:
		db, err := commondb.NewSQLiteDB(a.cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return a.sqlStore(ctx, db, store.DialectSQLite)
	default:
		a.logger.Warn("using in-memory store, changes are lost on exit")
		return store.NewMemoryKV(), nil
	}
}

func (a *app) sqlStore(ctx context.Context, db *sql.DB, dialect store.Dialect) (store.KV, error) {
	a.closers = append(a.closers, func() { _ = commondb.Close(db) })
	kv := store.NewSQLKV(db, dialect)
	if err := kv.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare store schema: %w", err)
	}
	return kv, nil
}

// redisClient lazily connects; the store and the event stream share it.
func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client := commonredis.NewRedisClient(&a.cfg.Redis)
	if err := commonredis.Ping(ctx, client); err != nil {
		_ = commonredis.Close(client)
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", a.cfg.Redis.Addr, err)
	}
	a.redis = client
	a.closers = append(a.closers, func() { _ = commonredis.Close(client) })
	return client, nil
}

// publishers audit event sinks from config. Sinks that fail to connect are
// skipped with a warning.
func (a *app) publishers(ctx context.Context, extra ...service.EventPublisher) service.EventPublisher {
	pubs := service.MultiPublisher(extra)
	if a.cfg.Events.RedisStream {
		if client, err := a.redisClient(ctx); err != nil {
			a.logger.Warn("redis event stream disabled", zap.Error(err))
		} else {
			pubs = append(pubs, service.NewRedisStreamPublisher(client, a.cfg.Events.Stream, a.cfg.Events.MaxLen))
		}
	}
	if a.cfg.MQTT.Enabled {
		client, err := commonmqtt.NewClient(&a.cfg.MQTT.MQTTConfig, a.logger)
		if err != nil {
			a.logger.Warn("mqtt event fan-out disabled", zap.Error(err))
		} else {
			a.mqtt = client
			a.closers = append(a.closers, client.Disconnect)
			pubs = append(pubs, service.NewMQTTPublisher(client, a.cfg.MQTT.TopicPrefix))
		}
	}
	if len(pubs) == 0 {
		return service.NopPublisher{}
	}
	return pubs
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}
