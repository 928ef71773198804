package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultCacheExpiry is the default expiration time for cached items
	DefaultCacheExpiry = 3600 // 1 hour in seconds
)

// Client represents a Redis client with improved connection management
type Client struct {
	client        *redis.Client
	errorCount    int32
	lastErrorTime int64
	mu            sync.Mutex
	locks         map[string]string // Track acquired locks by instance
	releaseScript *redis.Script
	config        *Config
}

// Config holds Redis client configuration
type Config struct {
	Host                string
	Port                int
	DB                  int
	Password            string
	MaxConnections      int
	ConnTimeout         time.Duration
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	HealthCheckInterval time.Duration
}

// DefaultConfig returns default Redis configuration
func DefaultConfig() *Config {
	return &Config{
		Host:                "localhost",
		Port:                6379,
		DB:                  0,
		Password:            "",
		MaxConnections:      100,
		ConnTimeout:         2 * time.Second,
		ReadTimeout:         3 * time.Second,
		WriteTimeout:        3 * time.Second,
		HealthCheckInterval: 15 * time.Second,
	}
}

// New creates a new Redis client with the given configuration
func New(config *Config) *Client {
	client := &Client{
		locks:  make(map[string]string),
		config: config,
	}

	client.initClient()

	// Only the lock owner may release a lock
	client.releaseScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)

	return client
}

// initClient initializes the Redis client
func (c *Client) initClient() {
	c.client = redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%d", c.config.Host, c.config.Port),
		Password:        c.config.Password,
		DB:              c.config.DB,
		PoolSize:        c.config.MaxConnections,
		MinIdleConns:    10,
		DialTimeout:     c.config.ConnTimeout,
		ReadTimeout:     c.config.ReadTimeout,
		WriteTimeout:    c.config.WriteTimeout,
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
	})
}

// checkAndResetClient resets the underlying connection after repeated errors
func (c *Client) checkAndResetClient() {
	errCount := atomic.LoadInt32(&c.errorCount)
	lastErr := atomic.LoadInt64(&c.lastErrorTime)

	if errCount > 5 && time.Now().Unix()-lastErr < 60 {
		c.mu.Lock()
		defer c.mu.Unlock()

		// Re-check under lock
		if atomic.LoadInt32(&c.errorCount) > 5 {
			_ = c.client.Close()
			c.initClient()
			atomic.StoreInt32(&c.errorCount, 0)
		}
	}
}

// recordError tracks connection errors for potential client reset
func (c *Client) recordError() {
	atomic.AddInt32(&c.errorCount, 1)
	atomic.StoreInt64(&c.lastErrorTime, time.Now().Unix())
	c.checkAndResetClient()
}

// Ping checks if the Redis connection is alive
func (c *Client) Ping(ctx context.Context) error {
	err := c.client.Ping(ctx).Err()
	if err != nil {
		c.recordError()
	}
	return err
}

// Get retrieves a string value from Redis
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		c.recordError()
	}
	return val, err
}

// GetJSON retrieves a value from Redis and unmarshals it into the result
func (c *Client) GetJSON(ctx context.Context, key string, result any) error {
	val, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), result)
}

// Set stores a string value in Redis with expiration
func (c *Client) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	err := c.client.Set(ctx, key, value, expiration).Err()
	if err != nil {
		c.recordError()
	}
	return err
}

// SetJSON marshals a value to JSON and stores it in Redis with expiration
func (c *Client) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.Set(ctx, key, string(data), expiration)
}

// Delete removes a key from Redis, returning whether the key existed
func (c *Client) Delete(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Del(ctx, key).Result()
	if err != nil {
		c.recordError()
		return false, err
	}
	return count > 0, nil
}

// AcquireLock attempts to acquire a distributed lock with retries
func (c *Client) AcquireLock(ctx context.Context, lockName string, expiration time.Duration, retryCount int, retryDelay time.Duration) (bool, error) {
	lockKey := "lock:" + lockName
	instanceID := uuid.New().String()

	for attempt := 0; attempt <= retryCount; attempt++ {
		ok, err := c.client.SetNX(ctx, lockKey, instanceID, expiration).Result()
		if err != nil {
			c.recordError()
			return false, err
		}

		if ok {
			c.mu.Lock()
			c.locks[lockName] = instanceID
			c.mu.Unlock()
			return true, nil
		}

		if attempt < retryCount {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	return false, nil
}

// ReleaseLock releases a previously acquired lock if still owned
func (c *Client) ReleaseLock(ctx context.Context, lockName string) (bool, error) {
	lockKey := "lock:" + lockName

	c.mu.Lock()
	instanceID, owned := c.locks[lockName]
	delete(c.locks, lockName)
	c.mu.Unlock()

	if !owned {
		return false, nil
	}

	result, err := c.releaseScript.Run(ctx, c.client, []string{lockKey}, instanceID).Result()
	if err != nil {
		c.recordError()
		return false, err
	}

	released, ok := result.(int64)
	return ok && released > 0, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
