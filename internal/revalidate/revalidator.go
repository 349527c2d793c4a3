package revalidate

import "context"

// Revalidator tells downstream caches that the named views are stale.
type Revalidator interface {
	Revalidate(ctx context.Context, views []string) error
}
