package api

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"infinite-experiment/roster/internal/auth"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/config"
	"infinite-experiment/roster/internal/db/repositories"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/platform"
	"infinite-experiment/roster/internal/services"
)

type Repositories struct {
	Hierarchy *repositories.HierarchyRepository
	Settings  *repositories.SettingsRepository
	Lifecycle *repositories.LifecycleRepository
	Audit     *repositories.AuditRepository
	Keys      *repositories.KeysRepo
}

type Services struct {
	Cache        common.CacheInterface
	Locker       common.KeyLocker
	Audit        services.AuditPublisher
	Stream       *common.RedisStreamService
	Config       *services.ConfigStore
	Ranks        *services.RankService
	Settings     *services.SettingsService
	Lifecycle    *services.LifecycleService
	Tools        *services.GuildToolsService
	Interactions *services.InteractionService
	Importer     *services.Importer
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
	Metrics  *metrics.MetricsRegistry
	Signer   *auth.TokenSigner
	Redis    *redis.Client
}

// InitDependencies wires repositories and services. Redis, when enabled,
// backs the cache, the audit stream and optionally the key locker.
func InitDependencies(
	cfg *config.Config,
	gdb *gorm.DB,
	sdb *sqlx.DB,
	p platform.Platform,
	reg *metrics.MetricsRegistry,
) (*Dependencies, error) {

	repos := &Repositories{
		Hierarchy: repositories.NewHierarchyRepository(gdb),
		Settings:  repositories.NewSettingsRepository(gdb),
		Lifecycle: repositories.NewLifecycleRepository(gdb),
		Audit:     repositories.NewAuditRepository(gdb),
		Keys:      repositories.NewApiKeysRepo(sdb),
	}

	var (
		redisClient *redis.Client
		cache       common.CacheInterface
		stream      *common.RedisStreamService
		audit       services.AuditPublisher
	)
	if cfg.Redis.Enabled {
		client, err := common.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			return nil, err
		}
		redisClient = client
		cache = common.NewRedisCacheService(redisClient, "roster:")
		stream = common.NewRedisStreamService(redisClient)
		audit = services.NewStreamAuditPublisher(stream, cfg.Audit.Stream)
	} else {
		cache = common.NewCacheService(cfg.Cache.TTL, 10*time.Minute)
		audit = services.NewDirectAuditPublisher(repos.Audit)
	}

	var locker common.KeyLocker
	switch cfg.Cache.Locker {
	case config.LockerRedis:
		locker = common.NewRedisKeyLocker(redisClient, "roster:lock:", 30*time.Second)
	default:
		locker = common.NewMemoryKeyLocker()
	}
	logging.Info("dependencies configured",
		"redis", cfg.Redis.Enabled,
		"locker", cfg.Cache.Locker,
		"db_driver", cfg.Database.Driver)

	store := services.NewConfigStore(repos.Hierarchy, repos.Settings, cache, cfg.Cache.TTL, reg)
	settings := services.NewSettingsService(p, store, locker, reg, services.DefaultLockWait)
	lifecycle := services.NewLifecycleService(p, store, settings, repos.Lifecycle, locker, audit, reg, services.DefaultLockWait)

	svcs := &Services{
		Cache:        cache,
		Locker:       locker,
		Audit:        audit,
		Stream:       stream,
		Config:       store,
		Ranks:        services.NewRankService(p, store, locker, audit, reg, services.DefaultLockWait),
		Settings:     settings,
		Lifecycle:    lifecycle,
		Tools:        services.NewGuildToolsService(p, store),
		Interactions: services.NewInteractionService(lifecycle),
		Importer:     services.NewImporter(store, repos.Lifecycle),
	}

	return &Dependencies{
		Repo:     repos,
		Services: svcs,
		Metrics:  reg,
		Signer:   auth.NewTokenSigner([]byte(cfg.Auth.JWTSecret)),
		Redis:    redisClient,
	}, nil
}

// Close releases the cache and the Redis pool.
func (d *Dependencies) Close() {
	if d.Services.Cache != nil {
		_ = d.Services.Cache.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
}
