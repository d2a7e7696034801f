package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encodable values for short periods.
type Cache interface {
	// Get decodes the value into dst. found is false on a miss.
	Get(ctx context.Context, key string, dst interface{}) (found bool, err error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Noop never stores anything. Used when Redis is not configured.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string, dst interface{}) (bool, error) { return false, nil }
func (Noop) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (Noop) Delete(ctx context.Context, keys ...string) error { return nil }

// Keys shared by handlers.
const DashboardKey = "dashboard:global"

func SidebarKey(roleID string) string {
	return "sidebar:role:" + roleID
}
