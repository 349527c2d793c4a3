package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

const viewVersionPrefix = "view-version:"

// ViewVersions keeps a monotonically increasing counter per logical view.
// Readers use the counter as a cache validator; the revalidation worker bumps it.
type ViewVersions struct {
	client *goredis.Client
}

func NewViewVersions(client *goredis.Client) (*ViewVersions, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &ViewVersions{client: client}, nil
}

// Bump increments every named view in one pipeline.
func (v *ViewVersions) Bump(ctx context.Context, views ...string) error {
	keys := viewKeys(views)
	if len(keys) == 0 {
		return nil
	}

	pipe := v.client.TxPipeline()
	for _, key := range keys {
		pipe.Incr(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to bump view versions: %w", err)
	}
	return nil
}

// Version returns the current counter for view, zero when never bumped.
func (v *ViewVersions) Version(ctx context.Context, view string) (int64, error) {
	keys := viewKeys([]string{view})
	if len(keys) == 0 {
		return 0, fmt.Errorf("view name is required")
	}

	n, err := v.client.Get(ctx, keys[0]).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read view version: %w", err)
	}
	return n, nil
}

func viewKeys(views []string) []string {
	keys := make([]string, 0, len(views))
	seen := make(map[string]struct{}, len(views))
	for _, view := range views {
		view = strings.TrimSpace(view)
		if view == "" {
			continue
		}
		if _, ok := seen[view]; ok {
			continue
		}
		seen[view] = struct{}{}
		keys = append(keys, viewVersionPrefix+view)
	}
	return keys
}
