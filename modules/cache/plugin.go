package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/storage/redis/v3"
)

// Config configures the Redis connection and entry lifetime.
type Config struct {
	Addr     string
	Password string
	Prefix   string
	TTL      time.Duration
}

// PluginModule provides the stats cache as a mono plugin. Plugins start before
// and stop after regular modules, so the cache outlives every consumer.
type PluginModule struct {
	container types.ServiceContainer
	config    Config
	logger    types.Logger
	storage   *redis.Storage
	cache     *StatsCache
}

var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates the cache plugin. Port may be handed out before Start;
// the returned cache reports ErrNotStarted until the connection is up.
func NewPluginModule(config Config, logger types.Logger) *PluginModule {
	if config.Prefix == "" {
		config.Prefix = "taskmgr:stats:"
	}
	if config.TTL <= 0 {
		config.TTL = time.Minute
	}
	return &PluginModule{
		config: config,
		logger: logger.WithModule("cache"),
		cache:  NewStatsCache(nil, config.Prefix, config.TTL),
	}
}

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "cache"
}

// Start connects to Redis.
func (m *PluginModule) Start(_ context.Context) error {
	host, port := parseRedisAddr(m.config.Addr)
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	// redis.New panics when the server is unreachable.
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return fmt.Errorf("redis not reachable at %s: %w", addr, err)
	}
	conn.Close()

	m.storage = redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: m.config.Password,
		PoolSize: 50,
	})
	m.cache.attach(m.storage)

	m.logger.Info("plugin started", "redis_addr", addr, "prefix", m.config.Prefix, "ttl", m.config.TTL.String())
	return nil
}

// Stop closes the Redis connection.
func (m *PluginModule) Stop(_ context.Context) error {
	if m.storage != nil {
		if err := m.storage.Close(); err != nil {
			m.logger.Error("failed to close connection", "error", err)
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}
	m.logger.Info("plugin stopped")
	return nil
}

// SetContainer sets the service container for this plugin.
func (m *PluginModule) SetContainer(container types.ServiceContainer) {
	m.container = container
}

// Container returns the service container for this plugin.
func (m *PluginModule) Container() types.ServiceContainer {
	return m.container
}

// Port returns the stats cache consumers use.
func (m *PluginModule) Port() *StatsCache {
	return m.cache
}

// Health pings Redis and reports the hit counters.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	if m.storage == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "storage not initialized",
		}
	}
	if err := m.storage.Conn().Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("health check failed: %v", err),
		}
	}

	counters := m.cache.Counters()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis_addr": m.config.Addr,
			"prefix":     m.config.Prefix,
			"ttl":        m.config.TTL.String(),
			"hits":       counters.Hits,
			"misses":     counters.Misses,
		},
	}
}

// parseRedisAddr splits "host:port", falling back to 127.0.0.1:6379 for missing parts.
func parseRedisAddr(addr string) (string, int) {
	const defaultHost = "127.0.0.1"
	const defaultPort = 6379

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}
	if host == "" {
		host = defaultHost
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = defaultPort
	}
	return host, port
}
