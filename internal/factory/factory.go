package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/questforge/pigateway/internal/dependencies/clock"
	"github.com/questforge/pigateway/internal/gateway"
	"github.com/questforge/pigateway/internal/pinet"
	"github.com/questforge/pigateway/internal/services/identity"
	"github.com/questforge/pigateway/internal/services/payment"
	"github.com/questforge/pigateway/internal/services/ratelimit"
	"github.com/questforge/pigateway/internal/services/session"
	"github.com/questforge/pigateway/internal/services/verifier"
	"github.com/questforge/pigateway/internal/storage"
	"github.com/questforge/pigateway/internal/storage/memory"
	"github.com/questforge/pigateway/internal/storage/postgres"
	redisstorage "github.com/questforge/pigateway/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock   clock.Clock
	Network pinet.Client

	// Services
	Verifier        *verifier.Service
	Identity        *identity.Service
	PaymentControl  *payment.Controller
	Sessions        *session.Service
	RateLimiter     ratelimit.Limiter
	KeyCache        *ratelimit.KeyCache
	Gateway         *gateway.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger

	// StorageType selects the storage backend ("memory", "redis" or
	// "postgres"); defaults to "memory"
	StorageType string
	// RedisURL holds Redis connection settings (required if StorageType is "redis")
	RedisURL string
	// PostgresURL holds the Postgres DSN (required if StorageType is "postgres")
	PostgresURL string

	// NetworkConfig configures the Network client
	NetworkConfig pinet.Config
	// NetworkClient overrides the real client (for testing)
	NetworkClient pinet.Client

	// VerifyMode selects the verification strategy ("api" or
	// "signature"); defaults to "api"
	VerifyMode string
	// PublicKeyTTL bounds the key cache; zero caches until invalidation
	PublicKeyTTL time.Duration

	// RateLimit configures the verification rate limit
	RateLimit ratelimit.Config

	// SessionConfig configures local session tokens; the secret is
	// required
	SessionConfig session.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()

	// Create storage and, for redis, a client shared with the rate
	// limiter
	var store storage.Storage
	var redisClient *goredis.Client

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("RedisURL required when StorageType is redis")
		}
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		redisClient = goredis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		store = redisstorage.NewWithClient(redisClient, redisCfg)
	case StorageTypePostgres:
		if cfg.PostgresURL == "" {
			return nil, errors.New("PostgresURL required when StorageType is postgres")
		}
		pgStore, err := postgres.New(cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		store = pgStore
	default:
		return nil, fmt.Errorf("invalid StorageType %q", storageType)
	}

	// Network client
	network := cfg.NetworkClient
	if network == nil {
		network = pinet.New(cfg.NetworkConfig)
	}

	// Rate limiter: shares the redis client when one exists, so
	// load-balanced instances count against the same windows
	var limiter ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit, clk)
	}

	keyCache := ratelimit.NewKeyCache(network, clk, cfg.PublicKeyTTL)

	// Verification strategy
	var strategy verifier.Strategy
	switch cfg.VerifyMode {
	case "", verifier.ModeAPI:
		strategy = verifier.NewAPIStrategy(network)
	case verifier.ModeSignature:
		strategy = verifier.NewSignatureStrategy(keyCache)
	default:
		return nil, fmt.Errorf("invalid VerifyMode %q", cfg.VerifyMode)
	}

	verifierService := verifier.New(strategy, limiter)
	identityService := identity.New(store, clk)
	paymentController := payment.NewController(store, network, clk)

	sessionService, err := session.New(cfg.SessionConfig, clk)
	if err != nil {
		return nil, err
	}

	gw := gateway.New(verifierService, identityService, sessionService, paymentController)

	return &App{
		Storage:        store,
		Clock:          clk,
		Network:        network,
		Verifier:       verifierService,
		Identity:       identityService,
		PaymentControl: paymentController,
		Sessions:       sessionService,
		RateLimiter:    limiter,
		KeyCache:       keyCache,
		Gateway:        gw,
	}, nil
}
