package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	DefaultStorageHostname = "storage.bunnycdn.com"
	defaultUploadTimeout   = 5 * time.Minute
)

// BunnyOpts configures a BunnyBackend.
type BunnyOpts struct {
	StorageZone     string
	AccessKey       string
	StorageHostname string
	CDNHostname     string
	// BaseURL overrides https://{StorageHostname}, used in tests.
	BaseURL string
	Timeout time.Duration
}

// BunnyBackend uploads to a Bunny.net storage zone over the Edge Storage API.
type BunnyBackend struct {
	httpClient *resty.Client
	zone       string
	accessKey  string
	cdnHost    string
}

// NewBunnyBackend creates a Bunny storage backend.
func NewBunnyBackend(opts BunnyOpts) *BunnyBackend {
	host := opts.StorageHostname
	if host == "" {
		host = DefaultStorageHostname
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://" + host
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultUploadTimeout
	}

	return &BunnyBackend{
		httpClient: resty.New().
			SetDebug(false).
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout),
		zone:      opts.StorageZone,
		accessKey: opts.AccessKey,
		cdnHost:   opts.CDNHostname,
	}
}

// Upload PUTs the full body to {zone}/{key}.
func (b *BunnyBackend) Upload(ctx context.Context, req Request) (*Result, error) {
	contentType := req.ContentType
	if contentType == "" {
		contentType = octetStream
	}

	res, err := b.httpClient.R().
		SetContext(ctx).
		SetHeader("AccessKey", b.accessKey).
		SetHeader("Content-Type", contentType).
		SetBody(req.Body).
		Put("/" + b.zone + "/" + req.Key)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	if !res.IsSuccess() {
		return nil, &TransferError{StatusCode: res.StatusCode(), Message: strings.TrimSpace(res.String())}
	}

	log.Debug().
		Str("key", req.Key).
		Int("bytes", len(req.Body)).
		Int("status", res.StatusCode()).
		Msg("bunny upload complete")

	return &Result{Key: req.Key, URL: b.PublicURL(req.Key)}, nil
}

// PublicURL returns the CDN URL for key.
func (b *BunnyBackend) PublicURL(key string) string {
	return cdnURL(b.cdnHost, key)
}

// Ping lists the zone root to confirm the hostname, zone and access key.
func (b *BunnyBackend) Ping(ctx context.Context) error {
	res, err := b.httpClient.R().
		SetContext(ctx).
		SetHeader("AccessKey", b.accessKey).
		SetHeader("Accept", "application/json").
		Get("/" + b.zone + "/")
	if err != nil {
		return fmt.Errorf("storage request failed: %w", err)
	}
	if !res.IsSuccess() {
		return &TransferError{StatusCode: res.StatusCode(), Message: strings.TrimSpace(res.String())}
	}
	return nil
}
