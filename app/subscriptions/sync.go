package subscriptions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mediarack/mediarack/app/catalog"
	"github.com/mediarack/mediarack/app/database"
)

// Catalog is the catalog surface subscription provisioning needs.
type Catalog interface {
	Channels() []*database.Channel
	AddChannel(ctx context.Context, url string, opts catalog.AddOptions) (*database.Channel, error)
}

// Sync adds every declared subscription whose URL is not yet in the
// catalog. Already-subscribed URLs are left untouched; one subscription
// failing does not stop the rest.
func Sync(ctx context.Context, c Catalog, subs []*Subscription) catalog.BatchResult {
	var res catalog.BatchResult
	if len(subs) == 0 {
		return res
	}

	known := make(map[string]bool)
	for _, ch := range c.Channels() {
		known[ch.URL] = true
	}

	for _, sub := range subs {
		if known[sub.URL] {
			continue
		}

		_, err := c.AddChannel(ctx, sub.URL, catalog.AddOptions{
			Type:       sub.Type,
			Title:      sub.Title,
			Categories: sub.Categories,
			Auto:       sub.Auto,
			Mask:       sub.Mask,
			Disabled:   sub.Disabled,
			AddCount:   sub.AddCount,
		})
		if err != nil {
			slog.Warn("Subscription sync failed", "url", sub.URL, "error", err)
			res.Fail(fmt.Errorf("%s: %w", sub.URL, err))
			continue
		}
		res.OK()
		known[sub.URL] = true
	}

	if res.Succeeded > 0 || res.Failed > 0 {
		slog.Info("Subscriptions synced", "added", res.Succeeded, "failed", res.Failed)
	}
	return res
}
