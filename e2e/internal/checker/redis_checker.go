package checker

import (
	"context"
	"fmt"
	"strings"

	"github.com/saaga0h/jeeves-dns/e2e/internal/scenario"
	"github.com/saaga0h/jeeves-dns/pkg/redis"
)

// InstancePlaceholder in a redis_key is replaced with the agent instance ID
const InstancePlaceholder = "{instance_id}"

// CheckRedis checks a Redis hash field expectation
func CheckRedis(ctx context.Context, client redis.Client, exp scenario.Expectation, instanceID string) (bool, string, interface{}) {
	key := exp.RedisKey
	if strings.Contains(key, InstancePlaceholder) {
		if instanceID == "" {
			return false, "no agent instance ID observed yet", nil
		}
		key = strings.ReplaceAll(key, InstancePlaceholder, instanceID)
	}

	fields, err := client.HGetAll(ctx, key)
	if err != nil {
		return false, fmt.Sprintf("redis error: %v", err), nil
	}

	value, ok := fields[exp.RedisField]
	if !ok {
		return false, fmt.Sprintf("key %q field %q not found in Redis", key, exp.RedisField), nil
	}

	if ok, reason := Matches(value, exp.Expected); !ok {
		return false, reason, value
	}
	return true, "", value
}
