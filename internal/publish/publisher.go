package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericmwalk/obsidian-bunny-publisher/internal/alttext"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/config"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/embed"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/notify"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/storage"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/upload"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/vault"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Vault is the part of the note store a publish run needs.
type Vault interface {
	ReadNote(notePath string) (string, error)
	WriteNote(notePath, content string) error
	Resolve(token embed.Token, notePath string) (*vault.Asset, error)
	Rename(asset *vault.Asset, newName string) (*vault.Asset, error)
	Delete(asset *vault.Asset) error
}

// Describer produces alt text for an image. It never fails.
type Describer interface {
	Describe(ctx context.Context, img alttext.Image) alttext.Caption
}

// History records published assets.
type History interface {
	RecordUpload(rec *storage.UploadRecord) error
}

// Options are the per-run settings taken from the configuration.
type Options struct {
	UploadPath        string
	DeleteAfterUpload bool
	// DryRun computes the rewritten note without uploading, renaming,
	// deleting or writing anything.
	DryRun bool
}

// OptionsFromConfig extracts the publish settings from cfg.
func OptionsFromConfig(cfg config.Config, dryRun bool) Options {
	return Options{
		UploadPath:        cfg.Storage.UploadPath,
		DeleteAfterUpload: cfg.DeleteAfterUpload,
		DryRun:            dryRun,
	}
}

// Publisher uploads the media embedded in a note and rewrites the note to
// point at the published copies.
type Publisher struct {
	vault     Vault
	backend   upload.Backend
	describer Describer
	notifier  notify.Notifier
	history   History
	opts      Options
	now       func() time.Time
}

// New creates a publisher. describer and notifier may be nil.
func New(v Vault, backend upload.Backend, describer Describer, notifier notify.Notifier, opts Options) *Publisher {
	if describer == nil {
		describer = alttext.NewGenerator(false, nil)
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Publisher{
		vault:     v,
		backend:   backend,
		describer: describer,
		notifier:  notifier,
		opts:      opts,
		now:       time.Now,
	}
}

// WithHistory makes the publisher record every upload in h.
func (p *Publisher) WithHistory(h History) *Publisher {
	p.history = h
	return p
}

// WithClock replaces the wall clock used for upload path expansion.
func (p *Publisher) WithClock(now func() time.Time) *Publisher {
	p.now = now
	return p
}

// Outcome is what happened to one embed.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomePublished
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePublished:
		return "published"
	case OutcomeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Item is the result for one embed token.
type Item struct {
	Token   embed.Token
	Outcome Outcome
	Asset   string // Vault path of the published asset
	URL     string
	Caption string
	Reused  bool // Served from an earlier embed of the same asset in this run
	Err     error
}

// Report is the result of publishing one note.
type Report struct {
	RunID   string
	Note    string
	Summary Summary
	Items   []Item
	Changed bool
	// Diff is a unified diff of the note, only set for dry runs.
	Diff string
}

// publication is what an uploaded asset rewrites to.
type publication struct {
	asset       string
	url         string
	caption     string
	replacement string
}

// run holds the state of a single Publish call.
type run struct {
	*Publisher
	id        string
	note      string
	logger    zerolog.Logger
	report    *Report
	rewriter  embed.Rewriter
	published map[string]publication
}

// Publish processes every embed in notePath in document order and writes the
// rewritten note once at the end. A failure on one embed is counted and
// reported but does not stop the others.
func (p *Publisher) Publish(ctx context.Context, notePath string) (*Report, error) {
	r := &run{
		Publisher: p,
		id:        uuid.NewString(),
		note:      notePath,
		published: make(map[string]publication),
	}
	r.logger = log.With().Str("run", r.id).Str("note", notePath).Logger()
	r.report = &Report{RunID: r.id, Note: notePath}

	doc, err := p.vault.ReadNote(notePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}

	tokens := embed.ScanAll(doc)
	if len(tokens) == 0 {
		p.notifier.Notify(notify.LevelInfo, "No embedded media found in this note.")
		return r.report, nil
	}

	r.logger.Info().Int("embeds", len(tokens)).Bool("dryRun", p.opts.DryRun).Msg("publishing note")
	p.notifier.Notify(notify.LevelInfo, fmt.Sprintf("Uploading %d file(s)…", len(tokens)))

	var interrupted error
	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			interrupted = err
			break
		}
		r.report.Items = append(r.report.Items, r.process(ctx, token))
	}

	updated := r.rewriter.Apply(doc)
	r.report.Changed = updated != doc
	if p.opts.DryRun {
		r.report.Diff = unifiedDiff(notePath, doc, updated)
	} else if r.report.Changed {
		// Written even when interrupted: assets already uploaded may have been
		// deleted locally, and the note must point at their remote copies.
		if err := p.vault.WriteNote(notePath, updated); err != nil {
			return r.report, fmt.Errorf("failed to write note: %w", err)
		}
	}

	r.logger.Info().
		Int("uploaded", r.report.Summary.Uploaded).
		Int("deleted", r.report.Summary.Deleted).
		Int("failed", r.report.Summary.Failed).
		Msg("publish finished")

	if interrupted != nil {
		return r.report, fmt.Errorf("publish interrupted: %w", interrupted)
	}
	p.notifier.Notify(notify.LevelSummary, r.report.Summary.String())
	return r.report, nil
}

func (r *run) process(ctx context.Context, token embed.Token) Item {
	item := Item{Token: token}
	logger := r.logger.With().Str("embed", token.Target).Logger()

	// Earlier occurrences may have renamed or deleted the file, so the
	// target is checked before resolving.
	if pub, ok := r.published[targetKey(token.Target)]; ok {
		return r.reuse(item, pub)
	}

	asset, err := r.vault.Resolve(token, r.note)
	if err != nil {
		if !errors.Is(err, vault.ErrAssetNotFound) {
			logger.Warn().Err(err).Msg("failed to resolve embed")
		} else {
			logger.Debug().Msg("skipping unresolved embed")
		}
		return item
	}
	if asset.Kind == vault.KindUnsupported {
		logger.Debug().Str("ext", asset.Ext).Msg("skipping unsupported file type")
		return item
	}
	if pub, ok := r.published[pathKey(asset.Path)]; ok {
		return r.reuse(item, pub)
	}

	r.notifier.Notify(notify.LevelInfo, fmt.Sprintf("Uploading %s…", asset.Name))
	result, req, err := r.upload(ctx, asset)
	if err != nil {
		r.report.Summary.Failed++
		logger.Error().Err(err).Msg("upload failed")
		r.notifier.Notify(notify.LevelError, fmt.Sprintf("Failed to upload %s: %v", token.Target, err))
		item.Outcome = OutcomeFailed
		item.Err = err
		return item
	}
	r.report.Summary.Uploaded++
	originalPath := asset.Path

	if !r.opts.DryRun && req.Name != asset.Name {
		renamed, err := r.vault.Rename(asset, req.Name)
		if err != nil {
			logger.Warn().Err(err).Str("to", req.Name).Msg("failed to rename uploaded asset")
		} else {
			logger.Debug().Str("from", asset.Path).Str("to", renamed.Path).Msg("renamed asset to match upload")
			asset = renamed
		}
	}

	pub := publication{asset: asset.Path, url: result.URL}
	switch asset.Kind {
	case vault.KindImage:
		pub.caption = r.caption(ctx, asset)
		pub.replacement = embed.ImageMarkdown(pub.caption, pub.url)
	case vault.KindVideo:
		pub.replacement = embed.VideoTag(pub.url)
	}
	r.rewriter.Record(token, pub.replacement)
	r.published[targetKey(token.Target)] = pub
	r.published[pathKey(originalPath)] = pub

	if r.opts.DeleteAfterUpload && !r.opts.DryRun {
		if err := r.vault.Delete(asset); err != nil {
			logger.Warn().Err(err).Msg("failed to delete uploaded asset")
		} else {
			r.report.Summary.Deleted++
		}
	}

	if r.history != nil && !r.opts.DryRun {
		rec := &storage.UploadRecord{
			RunID:   r.id,
			Note:    r.note,
			Asset:   originalPath,
			Key:     result.Key,
			URL:     result.URL,
			Caption: pub.caption,
		}
		if err := r.history.RecordUpload(rec); err != nil {
			logger.Warn().Err(err).Msg("failed to record upload")
		}
	}

	item.Outcome = OutcomePublished
	item.Asset = pub.asset
	item.URL = pub.url
	item.Caption = pub.caption
	return item
}

func (r *run) upload(ctx context.Context, asset *vault.Asset) (*upload.Result, upload.Request, error) {
	data, err := asset.ReadAll()
	if err != nil {
		return nil, upload.Request{}, fmt.Errorf("failed to read %s: %w", asset.Path, err)
	}

	req := upload.NewRequest(asset.Name, data, r.opts.UploadPath, r.now())
	if r.opts.DryRun {
		return &upload.Result{Key: req.Key, URL: r.backend.PublicURL(req.Key)}, req, nil
	}

	result, err := r.backend.Upload(ctx, req)
	if err != nil {
		return nil, req, err
	}
	r.logger.Info().Str("asset", asset.Path).Str("url", result.URL).Int("bytes", len(data)).Msg("uploaded asset")
	return result, req, nil
}

func (r *run) caption(ctx context.Context, asset *vault.Asset) string {
	if r.opts.DryRun {
		return alttext.FallbackCaption(asset.Name)
	}

	if g, ok := r.describer.(interface{ Enabled() bool }); ok && g.Enabled() {
		r.notifier.Notify(notify.LevelInfo, fmt.Sprintf("Generating alt text for %s…", asset.Name))
	}
	caption := r.describer.Describe(ctx, asset)
	if caption.Warning != nil {
		r.notifier.Notify(notify.LevelWarn, fmt.Sprintf("Alt text failed for %s, using the file name instead.", asset.Name))
	}
	return caption.Text
}

// reuse rewrites a repeated embed of an asset already published in this run.
func (r *run) reuse(item Item, pub publication) Item {
	r.rewriter.Record(item.Token, pub.replacement)
	item.Outcome = OutcomePublished
	item.Reused = true
	item.Asset = pub.asset
	item.URL = pub.url
	item.Caption = pub.caption
	return item
}

// Keys are case-sensitive: cat.png and Cat.png are distinct files on most
// filesystems, and Resolve matches the exact name first.
func targetKey(target string) string {
	return "target:" + target
}

func pathKey(p string) string {
	return "path:" + strings.TrimPrefix(p, "/")
}

func unifiedDiff(name, before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s (published)\n", name, name)
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			prefix = " "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}
