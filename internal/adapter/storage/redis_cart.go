package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "cart:"

// RedisCartRepository keeps each user's cart in a hash of productID ->
// quantity.
type RedisCartRepository struct {
	client *redis.Client
}

func NewRedisCartRepository(client *redis.Client) *RedisCartRepository {
	return &RedisCartRepository{client: client}
}

func (r *RedisCartRepository) Add(ctx context.Context, userID, productID string, quantity int) error {
	return r.client.HIncrBy(ctx, cartKeyPrefix+userID, productID, int64(quantity)).Err()
}

func (r *RedisCartRepository) Items(ctx context.Context, userID string) (map[string]int, error) {
	raw, err := r.client.HGetAll(ctx, cartKeyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	items := make(map[string]int, len(raw))
	for productID, qty := range raw {
		n, err := strconv.Atoi(qty)
		if err != nil {
			return nil, fmt.Errorf("corrupt cart entry %s=%q: %w", productID, qty, err)
		}
		items[productID] = n
	}
	return items, nil
}

func (r *RedisCartRepository) Clear(ctx context.Context, userID string) error {
	return r.client.Del(ctx, cartKeyPrefix+userID).Err()
}
