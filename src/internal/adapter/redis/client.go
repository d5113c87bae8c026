package redis

import (
	"context"
	"fmt"
	"time"

	goredislib "github.com/redis/go-redis/v9"
)

// Connect opens a client and checks it with a PING.
func Connect(ctx context.Context, addr string) (*goredislib.Client, error) {
	client := goredislib.NewClient(&goredislib.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}
