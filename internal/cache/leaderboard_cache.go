package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache handles Redis ZSET operations for per-room leaderboards.
type LeaderboardCache interface {
	UpdateScore(ctx context.Context, roomCode, playerID string, score int) error
	Remove(ctx context.Context, roomCode, playerID string) error
	GetTop(ctx context.Context, roomCode string, limit int) ([]Entry, error)
	GetRank(ctx context.Context, roomCode, playerID string) (int64, error)
	Reset(ctx context.Context, roomCode string) error
}

// Entry is a single leaderboard row, ranked from 1.
type Entry struct {
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key(roomCode string) string {
	return fmt.Sprintf("room:%s:lb", roomCode)
}

func (c *leaderboardCache) UpdateScore(ctx context.Context, roomCode, playerID string, score int) error {
	return c.client.ZAdd(ctx, c.key(roomCode), redis.Z{
		Score:  float64(score),
		Member: playerID,
	}).Err()
}

func (c *leaderboardCache) Remove(ctx context.Context, roomCode, playerID string) error {
	return c.client.ZRem(ctx, c.key(roomCode), playerID).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, roomCode string, limit int) ([]Entry, error) {
	// limit-1 of 0 would read as the whole range in Redis.
	if limit <= 0 {
		return nil, nil
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(roomCode), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(results))
	for i, z := range results {
		entries[i] = Entry{
			PlayerID: z.Member.(string),
			Score:    int(z.Score),
			Rank:     i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, roomCode, playerID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(roomCode), playerID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}

func (c *leaderboardCache) Reset(ctx context.Context, roomCode string) error {
	return c.client.Del(ctx, c.key(roomCode)).Err()
}
