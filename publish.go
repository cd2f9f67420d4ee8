package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ericmwalk/obsidian-bunny-publisher/internal/alttext"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/notify"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/publish"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/vault"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type publishOptions struct {
	vaultDir string
	glob     string
	dryRun   bool
}

func newPublishCommand(global *globalOptions) *cobra.Command {
	opts := &publishOptions{}

	cmd := &cobra.Command{
		Use:   "publish [note.md]...",
		Short: "Upload embedded media and rewrite the notes",
		Long: dedentText(`
			Uploads every ![[embed]] of each note to the configured storage and
			replaces it with a Markdown image (with alt text) or a video tag
			pointing at the CDN. Notes are processed one after another and each
			note is written once, after all of its embeds are done.

			Embeds that cannot be found or are not images or videos are left as
			they are. A failed upload is reported and counted; the embed stays
			untouched and the remaining embeds are still published.
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.glob == "" {
				return fmt.Errorf("no notes given; pass note paths or --glob")
			}
			return runPublish(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.vaultDir, "vault", "", "Vault root (default: nearest folder containing .obsidian)")
	cmd.Flags().StringVar(&opts.glob, "glob", "", "Also publish vault notes matching this pattern, e.g. 'Posts/**/*.md'")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Show the changes without uploading or writing anything")
	return cmd
}

func runPublish(cmd *cobra.Command, global *globalOptions, opts *publishOptions, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	if missing := cfg.Validate(); len(missing) > 0 {
		hint := ""
		if isInteractiveTerminal() {
			hint = " (run 'bunnypub init')"
		}
		return fmt.Errorf("missing required config: %s%s", strings.Join(missing, ", "), hint)
	}

	root := opts.vaultDir
	if root == "" {
		start := "."
		if len(args) > 0 {
			start = filepath.Dir(args[0])
		}
		root = findVaultRoot(start)
	}
	v, err := vault.Open(root)
	if err != nil {
		return err
	}

	notes, err := collectNotes(v, opts.glob, args)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return fmt.Errorf("no notes matched %q in %s", opts.glob, v.Root())
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("continuing without caption cache and history")
	} else {
		defer store.Close()
	}

	var cache alttext.CaptionCache
	if store != nil {
		cache = store
	}
	generator := newGenerator(cfg, cache)
	notifier := newNotifier(cfg, global)

	p := publish.New(v, backend, generator, notifier, publish.OptionsFromConfig(cfg, opts.dryRun))
	if store != nil {
		p.WithHistory(store)
	}

	var total publish.Summary
	var failed []string
	for _, note := range notes {
		if len(notes) > 1 {
			notifier.Notify(notify.LevelInfo, "» "+note)
		}
		report, err := p.Publish(ctx, note)
		if report != nil {
			total.Add(report.Summary)
			if opts.dryRun && report.Diff != "" {
				fmt.Fprint(cmd.OutOrStdout(), report.Diff)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			log.Error().Err(err).Str("note", note).Msg("failed to publish note")
			failed = append(failed, note)
		}
	}

	if len(notes) > 1 {
		notifier.Notify(notify.LevelSummary, fmt.Sprintf("%d notes: %s", len(notes), total))
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to publish %s", strings.Join(failed, ", "))
	}
	if total.Failed > 0 {
		return errSilentExit
	}
	return nil
}

// collectNotes converts note arguments to vault paths and appends the notes
// matching pattern, without duplicates.
func collectNotes(v *vault.Vault, pattern string, args []string) ([]string, error) {
	seen := map[string]bool{}
	var notes []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			notes = append(notes, p)
		}
	}

	for _, arg := range args {
		rel, err := v.RelPath(arg)
		if err != nil {
			return nil, err
		}
		add(rel)
	}
	if pattern != "" {
		matched, err := v.Notes(pattern)
		if err != nil {
			return nil, err
		}
		for _, p := range matched {
			add(p)
		}
	}
	return notes, nil
}

// findVaultRoot walks up from start looking for an .obsidian folder and
// falls back to start itself.
func findVaultRoot(start string) string {
	abs, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	for dir := abs; ; dir = filepath.Dir(dir) {
		if info, err := os.Stat(filepath.Join(dir, ".obsidian")); err == nil && info.IsDir() {
			return dir
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}
	return abs
}
