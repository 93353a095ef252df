package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds connection settings for the session store, populated from
// REDIS_* environment variables.
type Config struct {
	URL          string `split_words:"true" required:"true"`
	DialTimeout  int    `split_words:"true" default:"5"`
	ReadTimeout  int    `split_words:"true" default:"3"`
	WriteTimeout int    `split_words:"true" default:"3"`
	PoolSize     int    `split_words:"true" default:"10"`
}

// New builds a client from the configured URL and verifies connectivity
// with a bounded ping before returning it.
func (c *Config) New() (*redis.Client, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = time.Duration(c.DialTimeout) * time.Second
	opts.ReadTimeout = time.Duration(c.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(c.WriteTimeout) * time.Second
	opts.PoolSize = c.PoolSize

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.DialTimeout)*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
