package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"lesson-progress-engine/internal/app"
	"lesson-progress-engine/internal/config"
	"lesson-progress-engine/internal/infra/file"
	"lesson-progress-engine/internal/infra/memory"
	pgstore "lesson-progress-engine/internal/infra/postgres"
	redisstore "lesson-progress-engine/internal/infra/redis"
	"lesson-progress-engine/internal/infra/sqlite"
	"lesson-progress-engine/internal/platform/logger"
)

// deps is everything a command needs, built from config.
type deps struct {
	cfg      config.Config
	log      *logger.Logger
	redis    *redis.Client
	pool     *pgxpool.Pool
	progress *app.GamificationStore
	service  *app.LearningService
	closers  []func()
}

func loadConfig(path string) (config.Config, *logger.Logger, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config %s: %w", path, err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return cfg, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

func buildDeps(ctx context.Context, cfg config.Config, log *logger.Logger) (*deps, error) {
	d := &deps{cfg: cfg, log: log}

	if cfg.Redis.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = d.redis.Close() })
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		d.pool = pool
		d.closers = append(d.closers, pool.Close)
	}

	kv, err := d.profileKV()
	if err != nil {
		d.Close()
		return nil, err
	}
	d.progress = app.NewGamificationStore(kv,
		app.WithProfileKey(cfg.Profile.Key),
		app.WithLocation(config.Location(cfg.Profile.Timezone)),
		app.WithLogger(log.With("component", "gamification")),
	)
	d.progress.Load(ctx)

	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)
	var lessons app.LessonRepository
	var sessions app.SessionRepository
	if d.redis != nil {
		lessons = redisstore.NewLessonRepository(d.redis, d.lessonLoader(), contentTTL)
		sessions = redisstore.NewSessionStore(d.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute), log.With("component", "sessions"))
	} else {
		lessons = memory.NewLessonRepository(d.lessonLoader(), contentTTL)
		sessions = memory.NewSessionStore()
	}
	d.service = app.NewLearningService(lessons, sessions, d.progress, log)
	return d, nil
}

// lessonLoader prefers Postgres, then the content file, then built-in samples.
func (d *deps) lessonLoader() memory.LessonLoader {
	switch {
	case d.pool != nil:
		return pgstore.NewLessonLoader(d.pool)
	case d.cfg.Content.Path != "":
		return file.NewLessonLoader(d.cfg.Content.Path)
	default:
		return memory.NewStaticLessonLoader(sampleLessons())
	}
}

func (d *deps) profileKV() (app.KVStore, error) {
	switch d.cfg.Profile.Store {
	case "", config.StoreSQLite:
		store, err := sqlite.Open(d.cfg.Profile.SQLite)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", d.cfg.Profile.SQLite, err)
		}
		d.closers = append(d.closers, func() { _ = store.Close() })
		return store, nil
	case config.StoreRedis:
		if d.redis == nil {
			return nil, fmt.Errorf("profile store redis: redis addr not configured")
		}
		return redisstore.NewKVStore(d.redis), nil
	case config.StorePostgres:
		if d.pool == nil {
			return nil, fmt.Errorf("profile store postgres: postgres url not configured")
		}
		return pgstore.NewKVStore(d.pool), nil
	case config.StoreMemory:
		return memory.NewKVStore(), nil
	default:
		return nil, fmt.Errorf("unknown profile store %q", d.cfg.Profile.Store)
	}
}

// Close releases connections in reverse order of creation.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
