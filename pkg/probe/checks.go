package probe

import (
	"context"
	"errors"
	"fmt"
	"os"

	"poppybuddy/pkg/assets"
	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/request"
	"poppybuddy/pkg/routes"
)

// Header is the request client subset used by ContentHost.
type Header interface {
	Head(ctx context.Context, u string) (*request.Meta, error)
}

// Catalog fails when the catalog yields no routes at all.
func Catalog(cat *catalog.Catalog) Probe {
	return Probe{
		Name:     "Catalog",
		Critical: true,
		Check: func(ctx context.Context) error {
			if routes.Count(cat) == 0 {
				return errors.New("catalog yields no routes")
			}
			return nil
		},
	}
}

// WritableDir fails when dir cannot be created or written to.
func WritableDir(name, dir string) Probe {
	return Probe{
		Name:     name,
		Critical: true,
		Check: func(ctx context.Context) error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
			f, err := os.CreateTemp(dir, ".probe-*")
			if err != nil {
				return fmt.Errorf("%s is not writable: %w", dir, err)
			}
			f.Close()
			return os.Remove(f.Name())
		},
	}
}

// ContentHost sends a HEAD for the first route's audio. It is not critical:
// pages build fine while the content host is down.
func ContentHost(client Header, cat *catalog.Catalog, linker assets.Linker) Probe {
	return Probe{
		Name: "Content Host",
		Check: func(ctx context.Context) error {
			for _, r := range routes.Enumerate(cat) {
				res, _ := routes.Resolve(cat, r.StoryName, r.Primary, r.Secondary)
				if !res.Complete() {
					continue
				}
				u := linker.AudioURL(r.StoryName, res.Primary.ShortName, res.Secondary.ShortName)
				if _, err := client.Head(ctx, u); err != nil {
					return fmt.Errorf("content host check failed: %w", err)
				}
				return nil
			}
			return errors.New("no complete route to check")
		},
	}
}
