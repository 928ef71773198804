package redis

import (
	"context"
	"log"
	"sync"
	"time"
)

var (
	// global client instance
	defaultClient *Client
	defaultOnce   sync.Once
)

// InitDefault initializes the default Redis client with the given configuration
func InitDefault(config *Config) {
	defaultOnce.Do(func() {
		defaultClient = New(config)

		// Start a background goroutine to periodically check the connection
		go monitorConnection(defaultClient)
	})
}

// GetDefault returns the default Redis client instance
func GetDefault() *Client {
	if defaultClient == nil {
		panic("Default Redis client not initialized. Call InitDefault first.")
	}
	return defaultClient
}

// CloseAll closes the default Redis client
func CloseAll() {
	if defaultClient != nil {
		if err := defaultClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}
}

// monitorConnection periodically pings the Redis server so connection
// problems surface before request traffic hits them
func monitorConnection(client *Client) {
	interval := client.config.HealthCheckInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := client.Ping(ctx); err != nil {
			log.Printf("Redis health check failed: %v", err)
		}
		cancel()
	}
}
