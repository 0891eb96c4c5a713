package store

import (
	"context"
	"time"
)

// CacheStore handles generic key-value caching.
type CacheStore interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// AssetCheck is the last known status of a remote asset.
type AssetCheck struct {
	URL           string    `json:"url"`
	Status        int       `json:"status"`
	ContentLength int64     `json:"content_length"`
	CheckedAt     time.Time `json:"checked_at"`
}

// AssetStore remembers asset existence checks.
type AssetStore interface {
	GetAssetCheck(ctx context.Context, url string) (*AssetCheck, bool)
	SaveAssetCheck(ctx context.Context, c *AssetCheck) error
}

// ManifestEntry records one generated route page.
type ManifestEntry struct {
	Path           string    `json:"path"`
	Story          string    `json:"story"`
	PrimaryToken   string    `json:"primary"`
	SecondaryToken string    `json:"secondary"`
	AudioURL       string    `json:"audio_url"`
	BuiltAt        time.Time `json:"built_at"`
}

// ManifestStore holds the page list of the most recent build.
type ManifestStore interface {
	ReplaceManifest(ctx context.Context, entries []ManifestEntry) error
	ListManifest(ctx context.Context) ([]ManifestEntry, error)
}
