package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ericmwalk/obsidian-bunny-publisher/internal/alttext"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/config"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/notify"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/storage"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/upload"
	"github.com/rs/zerolog/log"
)

// pingBackend is a storage backend that can check it is reachable.
type pingBackend interface {
	upload.Backend
	Ping(ctx context.Context) error
}

// newBackend creates the storage backend selected in cfg.
func newBackend(cfg config.Config) (upload.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendBunny:
		return upload.NewBunnyBackend(upload.BunnyOpts{
			StorageZone:     cfg.Storage.Zone,
			AccessKey:       cfg.Storage.AccessKey,
			StorageHostname: cfg.Storage.Hostname,
			CDNHostname:     cfg.Storage.CDNHostname,
		}), nil
	case config.BackendS3:
		return upload.NewS3Backend(upload.S3Opts{
			Endpoint:        cfg.S3.Endpoint,
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UseSSL:          cfg.S3.UseSSL,
			CDNHostname:     cfg.Storage.CDNHostname,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// openStore opens the local database. Publishing works without it, so callers
// may treat a failure as a warning.
func openStore(cfg config.Config) (*storage.SQLiteStore, error) {
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("dbPath", dbPath).Msg("store initialized")
	return store, nil
}

// newGenerator creates the alt text generator for cfg. store may be nil, in
// which case captions are not cached.
func newGenerator(cfg config.Config, store alttext.CaptionCache) *alttext.Generator {
	if !cfg.AltText.Enabled {
		return alttext.NewGenerator(false, nil)
	}

	provider, err := alttext.Select(cfg.AltText, alttext.Options{})
	if err != nil {
		log.Info().Err(err).Str("provider", cfg.AltText.Provider).Msg("using file names for alt text")
		return alttext.NewGenerator(true, nil)
	}

	if cfg.AltText.Cache && store != nil {
		provider = alttext.NewCachedProvider(provider, store)
		log.Debug().Msg("alt text caching enabled")
	}
	return alttext.NewGenerator(true, provider)
}

// newNotifier creates the console notifier and, when configured, the Telegram
// summary notifier.
func newNotifier(cfg config.Config, opts *globalOptions) notify.Notifier {
	notifiers := notify.Multi{notify.NewConsole(os.Stderr, !colorEnabled(opts), opts.quiet)}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.DialTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, "")
		if err != nil {
			log.Warn().Err(err).Msg("telegram notifications disabled")
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	return notifiers
}
