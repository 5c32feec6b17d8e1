package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"shelfwise/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

func ConnectRedis() {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx := context.Background()
	_, err := RDB.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	fmt.Println("Successfully connected to Redis!")
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		fmt.Println("Redis connection closed.")
	}
}

// RoleEntry is the cached slice of a user row the authorization engine
// re-reads on every request. Entries are replaced wholesale on write,
// never mutated in place.
type RoleEntry struct {
	UserType  int      `json:"user_type"`
	IsSuper   bool     `json:"is_super"`
	RoleNames []string `json:"role_names"`
}

// RoleCache is a TTL-bounded per-user lookup cache with explicit
// invalidation. Staleness is capped by the TTL; role mutations must call
// Invalidate synchronously so a changed assignment never outlives the entry.
type RoleCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRoleCache(rdb *redis.Client, ttl time.Duration) *RoleCache {
	return &RoleCache{rdb: rdb, ttl: ttl}
}

func roleKey(userID string) string {
	return "user_roles:" + userID
}

func (c *RoleCache) Get(ctx context.Context, userID string) (*RoleEntry, bool) {
	raw, err := c.rdb.Get(ctx, roleKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var entry RoleEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func (c *RoleCache) Set(ctx context.Context, userID string, entry *RoleEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, roleKey(userID), raw, c.ttl).Err(); err != nil {
		log.Printf("WARN: failed to cache roles for user %s: %v", userID, err)
	}
}

func (c *RoleCache) Invalidate(ctx context.Context, userID string) {
	if err := c.rdb.Del(ctx, roleKey(userID)).Err(); err != nil {
		log.Printf("WARN: failed to invalidate role cache for user %s: %v", userID, err)
	}
}
