package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/feed-service/internal/client"
)

// ProfileLookup is the upstream profile batch interface being decorated.
type ProfileLookup interface {
	GetProfilesByUsernames(ctx context.Context, usernames []string) ([]client.Profile, error)
}

// ProfileCache is a redis read-through cache in front of the profile service.
// One MGET per page keeps the read path at a single batch round-trip; only
// misses fall through to the upstream batch call.
type ProfileCache struct {
	next  ProfileLookup
	cache *redis.Client
	ttl   time.Duration
}

func NewProfileCache(next ProfileLookup, cache *redis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileCache{next: next, cache: cache, ttl: ttl}
}

func profileKey(username string) string { return fmt.Sprintf("profile:%s", username) }

func (c *ProfileCache) GetProfilesByUsernames(ctx context.Context, usernames []string) ([]client.Profile, error) {
	if len(usernames) == 0 {
		return []client.Profile{}, nil
	}

	keys := make([]string, len(usernames))
	for i, u := range usernames {
		keys[i] = profileKey(u)
	}

	hits := make(map[string]client.Profile, len(usernames))
	if vals, err := c.cache.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			if v == nil {
				continue
			}
			if str, ok := v.(string); ok {
				var p client.Profile
				if uErr := json.Unmarshal([]byte(str), &p); uErr == nil {
					hits[usernames[i]] = p
				}
			}
		}
	}

	missing := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if _, ok := hits[u]; !ok {
			missing = append(missing, u)
		}
	}

	if len(missing) > 0 {
		loaded, err := c.next.GetProfilesByUsernames(ctx, missing)
		if err != nil {
			return nil, err
		}
		pipe := c.cache.Pipeline()
		for _, p := range loaded {
			hits[p.Username] = p
			if payload, mErr := json.Marshal(p); mErr == nil {
				pipe.Set(ctx, profileKey(p.Username), payload, c.ttl)
			}
		}
		_, _ = pipe.Exec(ctx)
	}

	result := make([]client.Profile, 0, len(usernames))
	for _, u := range usernames {
		if p, ok := hits[u]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}
