package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/alttext"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/config"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/notify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const doctorTimeout = 15 * time.Second

// checkResult is the outcome of one doctor check. A nil err means OK; skipped
// checks carry a note instead.
type checkResult struct {
	name string
	note string
	err  error
}

func newDoctorCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, storage access and credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
			defer cancel()

			results := runChecks(ctx, cfg)
			failed := printResults(cmd, results, colorEnabled(global))
			if failed > 0 {
				return errSilentExit
			}
			return nil
		},
	}
}

// runChecks runs the independent checks concurrently and returns their
// results in a fixed order.
func runChecks(ctx context.Context, cfg config.Config) []checkResult {
	checks := []struct {
		name string
		fn   func(context.Context, config.Config) (string, error)
	}{
		{"configuration", checkConfig},
		{"storage", checkStorage},
		{"alt text", checkAltText},
		{"database", checkDatabase},
		{"telegram", checkTelegram},
	}

	results := make([]checkResult, len(checks))
	g, ctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		g.Go(func() error {
			note, err := c.fn(ctx, cfg)
			results[i] = checkResult{name: c.name, note: note, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func checkConfig(_ context.Context, cfg config.Config) (string, error) {
	if missing := cfg.Validate(); len(missing) > 0 {
		return "", fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return "backend " + cfg.Storage.Backend, nil
}

func checkStorage(ctx context.Context, cfg config.Config) (string, error) {
	if len(cfg.Validate()) > 0 {
		return "skipped, configuration incomplete", nil
	}
	backend, err := newBackend(cfg)
	if err != nil {
		return "", err
	}
	pinger, ok := backend.(pingBackend)
	if !ok {
		return "reachability not checked", nil
	}
	if err := pinger.Ping(ctx); err != nil {
		return "", err
	}
	return "reachable", nil
}

func checkAltText(_ context.Context, cfg config.Config) (string, error) {
	if !cfg.AltText.Enabled {
		return "disabled, file names are used", nil
	}
	p, err := alttext.Select(cfg.AltText, alttext.Options{})
	if errors.Is(err, alttext.ErrNoProvider) {
		if cfg.AltText.Provider == config.ProviderNone {
			return "provider none, file names are used", nil
		}
		return "", fmt.Errorf("%s selected but no API key set", cfg.AltText.Provider)
	}
	if err != nil {
		return "", err
	}
	return p.Name() + " key present", nil
}

func checkDatabase(_ context.Context, cfg config.Config) (string, error) {
	store, err := openStore(cfg)
	if err != nil {
		return "", err
	}
	defer store.Close()
	path, _ := cfg.DatabasePath()
	return path, nil
}

func checkTelegram(_ context.Context, cfg config.Config) (string, error) {
	if cfg.Telegram.BotToken == "" {
		return "not configured", nil
	}
	if cfg.Telegram.ChatID == 0 {
		return "", errors.New("TELEGRAM_CHAT_ID is not set")
	}
	if _, err := notify.DialTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, ""); err != nil {
		return "", err
	}
	return "authorized", nil
}

func printResults(cmd *cobra.Command, results []checkResult, color bool) int {
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	noteStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	if !color {
		okStyle, failStyle, noteStyle = lipgloss.NewStyle(), lipgloss.NewStyle(), lipgloss.NewStyle()
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(out, "%s %-14s %s\n", failStyle.Render("✗"), r.name, r.err)
			continue
		}
		fmt.Fprintf(out, "%s %-14s %s\n", okStyle.Render("✓"), r.name, noteStyle.Render(r.note))
	}
	return failed
}
