package alttext

import (
	"context"
	"encoding/hex"

	"github.com/ericmwalk/obsidian-bunny-publisher/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

// CaptionCache is the subset of storage.Store used for caching.
type CaptionCache interface {
	GetCaptionCache(imageHash, provider string) (*storage.CaptionCacheEntry, error)
	SetCaptionCache(imageHash, provider, caption string) error
}

// CachedProvider wraps a Provider with a persistent cache keyed by image
// content, so re-publishing the same picture does not call the backend again.
type CachedProvider struct {
	inner Provider
	store CaptionCache
}

// NewCachedProvider creates a cached provider.
func NewCachedProvider(inner Provider, store CaptionCache) *CachedProvider {
	return &CachedProvider{inner: inner, store: store}
}

// Name implements Provider.
func (c *CachedProvider) Name() string {
	return c.inner.Name()
}

// hashImage hashes the encoded payload together with its MIME type.
func hashImage(req Request) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(req.MIMEType))
	h.Write([]byte{0})
	h.Write([]byte(req.ImageBase64))
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateAltText implements Provider with caching.
func (c *CachedProvider) GenerateAltText(ctx context.Context, req Request) (string, error) {
	hash := hashImage(req)

	if c.store != nil {
		cached, err := c.store.GetCaptionCache(hash, c.inner.Name())
		if err != nil {
			log.Warn().Err(err).Msg("failed to check caption cache")
		} else if cached != nil {
			log.Debug().Str("hash", hash[:16]).Str("file", req.Filename).Msg("caption cache hit")
			return cached.Caption, nil
		}
	}

	text, err := c.inner.GenerateAltText(ctx, req)
	if err != nil {
		return "", err
	}

	if c.store != nil && text != "" {
		if err := c.store.SetCaptionCache(hash, c.inner.Name(), text); err != nil {
			log.Warn().Err(err).Msg("failed to cache caption")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached caption")
		}
	}

	return text, nil
}
