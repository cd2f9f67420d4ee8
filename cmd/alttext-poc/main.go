package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ericmwalk/obsidian-bunny-publisher/internal/alttext"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path> [openai|gemini|perplexity|all]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY     - Required for OpenAI\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY     - Required for Gemini\n")
		fmt.Fprintf(os.Stderr, "  PERPLEXITY_API_KEY - Required for Perplexity\n")
		os.Exit(1)
	}

	imagePath := os.Args[1]
	provider := "all"
	if len(os.Args) >= 3 {
		provider = os.Args[2]
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	config.LoadEnvFile()
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	req := alttext.Request{
		ImageBase64: base64.StdEncoding.EncodeToString(imageData),
		MIMEType:    alttext.GuessMIMEType(imagePath),
		Filename:    filepath.Base(imagePath),
		Prompt:      alttext.DefaultPrompt,
	}
	ctx := context.Background()

	var names []string
	switch provider {
	case "all":
		names = []string{config.ProviderOpenAI, config.ProviderGemini, config.ProviderPerplexity}
	case config.ProviderOpenAI, config.ProviderGemini, config.ProviderPerplexity:
		names = []string{provider}
	default:
		fmt.Fprintf(os.Stderr, "Unknown provider: %s (use openai, gemini, perplexity, or all)\n", provider)
		os.Exit(1)
	}

	for i, name := range names {
		if i > 0 {
			fmt.Println("\n" + strings.Repeat("-", 50) + "\n")
		}
		run(ctx, cfg.AltText, name, req)
	}
}

func run(ctx context.Context, cfg config.AltText, name string, req alttext.Request) {
	fmt.Printf("=== %s ===\n", strings.ToUpper(name))

	cfg.Provider = name
	p, err := alttext.Select(cfg, alttext.Options{})
	if err != nil {
		fmt.Printf("Skipped: %v\n", err)
		fmt.Printf("Fallback:    %s\n", alttext.FallbackCaption(req.Filename))
		return
	}

	start := time.Now()
	text, err := p.GenerateAltText(ctx, req)
	if err != nil {
		fmt.Printf("Error (%s): %v\n", alttext.KindOf(err), err)
		fmt.Printf("Fallback:    %s\n", alttext.FallbackCaption(req.Filename))
		return
	}

	fmt.Printf("Alt text:    %s\n", text)
	fmt.Printf("Markdown:    ![%s](…/%s)\n", text, req.Filename)
	fmt.Printf("Duration:    %s\n", time.Since(start).Round(time.Millisecond))
}
