package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCacheInterface は空席数キャッシュのインターフェース（テスト用に抽象化）
type AvailabilityCacheInterface interface {
	GetAvailableSeats(ctx context.Context, journeyID string) (int, error)
	SetAvailableSeats(ctx context.Context, journeyID string, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, journeyID string) error
}

// AvailabilityCache は運行便の空席数キャッシュを管理する
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetAvailableSeats は運行便の空席数をキャッシュから取得する
func (c *AvailabilityCache) GetAvailableSeats(ctx context.Context, journeyID string) (int, error) {
	key := c.availableSeatsKey(journeyID)
	val, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailableSeats は運行便の空席数をキャッシュに保存する
func (c *AvailabilityCache) SetAvailableSeats(ctx context.Context, journeyID string, count int, ttl time.Duration) error {
	key := c.availableSeatsKey(journeyID)
	if err := c.client.Set(ctx, key, count, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は運行便のキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, journeyID string) error {
	key := c.availableSeatsKey(journeyID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) availableSeatsKey(journeyID string) string {
	return fmt.Sprintf("journeys:available:%s", journeyID)
}

var _ AvailabilityCacheInterface = (*AvailabilityCache)(nil)
