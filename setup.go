package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/config"
	"github.com/spf13/cobra"
)

func newInitCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively configure storage and alt text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isInteractiveTerminal() {
				path, _ := config.EnvFilePath()
				return fmt.Errorf("init needs an interactive terminal; set the environment variables or edit %s", path)
			}
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			return runSetupWizard(cfg)
		},
	}
}

// setupAnswers holds the wizard's form values, pre-filled from the current
// configuration.
type setupAnswers struct {
	zone        string
	accessKey   string
	storageHost string
	cdnHost     string
	uploadPath  string
	deleteAfter bool
	altText     bool
	provider    string
	providerKey string

	// The key field is pre-filled for the provider configured when the
	// wizard opened.
	initialProvider string
	initialKey      string
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

// runSetupWizard collects the Bunny settings and the alt text provider and
// saves them to the env file.
func runSetupWizard(cfg config.Config) error {
	// Header style
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	fmt.Println()
	fmt.Println(titleStyle.Render("🐇 Bunny Publisher - Setup"))
	fmt.Println()

	a := setupAnswers{
		zone:        cfg.Storage.Zone,
		accessKey:   cfg.Storage.AccessKey,
		storageHost: cfg.Storage.Hostname,
		cdnHost:     cfg.Storage.CDNHostname,
		uploadPath:  cfg.Storage.UploadPath,
		deleteAfter: cfg.DeleteAfterUpload,
		altText:     cfg.AltText.Enabled,
		provider:    cfg.AltText.Provider,
		providerKey: cfg.AltText.ProviderKey(),
	}
	if a.provider == "" {
		a.provider = config.ProviderOpenAI
	}
	a.initialProvider = a.provider
	a.initialKey = a.providerKey

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Storage Zone Name").
				Description("Bunny dashboard → Storage → your zone").
				Value(&a.zone).
				Validate(required("storage zone")),
			huh.NewInput().
				Title("Storage Access Key").
				Description("Storage zone → FTP & API Access → Password").
				EchoMode(huh.EchoModePassword).
				Value(&a.accessKey).
				Validate(required("access key")),
			huh.NewInput().
				Title("Storage Hostname").
				Description("Region endpoint, e.g. storage.bunnycdn.com or ny.storage.bunnycdn.com").
				Value(&a.storageHost),
			huh.NewInput().
				Title("CDN Hostname").
				Description("Pull zone hostname, e.g. myzone.b-cdn.net").
				Value(&a.cdnHost).
				Validate(required("CDN hostname")),
			huh.NewInput().
				Title("Upload Path").
				Description("Folder inside the zone; {{YYYY}}, {{MM}} and {{DD}} are replaced with today's date").
				Placeholder("blog/{{YYYY}}/{{MM}}").
				Value(&a.uploadPath),
			huh.NewConfirm().
				Title("Delete local files after upload?").
				Value(&a.deleteAfter),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Generate alt text for images?").
				Description("Without a provider the file name is used").
				Value(&a.altText),
			huh.NewSelect[string]().
				Title("Alt Text Provider").
				Options(
					huh.NewOption("OpenAI", config.ProviderOpenAI),
					huh.NewOption("Gemini", config.ProviderGemini),
					huh.NewOption("Perplexity", config.ProviderPerplexity),
					huh.NewOption("None (file names)", config.ProviderNone),
				).
				Value(&a.provider),
		),
		huh.NewGroup(
			huh.NewInput().
				TitleFunc(func() string { return providerTitle(a.provider) + " API Key" }, &a.provider).
				EchoMode(huh.EchoModePassword).
				Value(&a.providerKey),
		).WithHideFunc(func() bool {
			return !a.altText || a.provider == config.ProviderNone
		}),
	).WithTheme(huh.ThemeBase16())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("\nSetup cancelled.")
			return errSilentExit
		}
		return err
	}

	configPath, err := config.WriteEnvFile(a.envValues())
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	pathStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	fmt.Println()
	fmt.Println(successStyle.Render("✓ Configuration saved"))
	fmt.Println(pathStyle.Render("  " + configPath))
	fmt.Println()
	return nil
}

// envValues maps the answers to env file entries. Empty values remove the
// entry from the file.
func (a setupAnswers) envValues() map[string]string {
	values := map[string]string{
		config.EnvName("storage.zone"):         strings.TrimSpace(a.zone),
		config.EnvName("storage.access_key"):   strings.TrimSpace(a.accessKey),
		config.EnvName("storage.hostname"):     strings.TrimSpace(a.storageHost),
		config.EnvName("storage.cdn_hostname"): strings.TrimSpace(a.cdnHost),
		config.EnvName("storage.upload_path"):  strings.TrimSpace(a.uploadPath),
		config.EnvName("delete_after_upload"):  strconv.FormatBool(a.deleteAfter),
		config.EnvName("alt_text.enabled"):     strconv.FormatBool(a.altText),
		config.EnvName("alt_text.provider"):    a.provider,
	}
	apiKey := strings.TrimSpace(a.providerKey)
	if a.provider != a.initialProvider && a.providerKey == a.initialKey {
		// Untouched pre-filled key of the previous provider.
		apiKey = ""
	}
	if name := providerKeyEnv(a.provider); name != "" && apiKey != "" {
		values[name] = apiKey
	}
	return values
}

func providerKeyEnv(provider string) string {
	switch provider {
	case config.ProviderOpenAI:
		return config.EnvName("alt_text.openai_key")
	case config.ProviderGemini:
		return config.EnvName("alt_text.gemini_key")
	case config.ProviderPerplexity:
		return config.EnvName("alt_text.perplexity_key")
	default:
		return ""
	}
}

func providerTitle(provider string) string {
	switch provider {
	case config.ProviderOpenAI:
		return "OpenAI"
	case config.ProviderGemini:
		return "Gemini"
	case config.ProviderPerplexity:
		return "Perplexity"
	default:
		return "Provider"
	}
}
