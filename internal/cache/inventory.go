package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PostKeyPrefix = "post:%s"
	UserKeyPrefix = "user:%d"
)

const (
	PostTTL = 30 * time.Minute
	UserTTL = 5 * time.Minute
)

func PostKey(slug string) string {
	return fmt.Sprintf(PostKeyPrefix, slug)
}

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidatePost(ctx context.Context, slug string) {
	Invalidate(ctx, PostKey(slug))
}
