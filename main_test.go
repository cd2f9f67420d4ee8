package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ericmwalk/obsidian-bunny-publisher/internal/config"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateConfig points the config directory at a temp dir and sets a complete
// Bunny configuration through the environment.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("BUNNY_STORAGE_BACKEND", "bunny")
	t.Setenv("BUNNY_STORAGE_ZONE", "zone")
	t.Setenv("BUNNY_ACCESS_KEY", "secret-access-key")
	t.Setenv("BUNNY_CDN_HOSTNAME", "https://cdn.example.net/")
	t.Setenv("BUNNY_UPLOAD_PATH", "img")
	t.Setenv("BUNNY_ALT_TEXT", "false")
	t.Setenv("BUNNY_DB_PATH", filepath.Join(dir, "test.db"))
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	return dir
}

func writeVaultFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	return full
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--no-color", "--quiet", "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPublishDryRunCommand(t *testing.T) {
	isolateConfig(t)
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".obsidian"), 0755))
	note := writeVaultFile(t, root, "Posts/hello.md", "Hi\n![[cat photo.png]]\n")
	writeVaultFile(t, root, "attachments/cat photo.png", "png")

	out, err := execute(t, "publish", "--dry-run", note)
	require.NoError(t, err)

	assert.Contains(t, out, "-![[cat photo.png]]\n")
	assert.Contains(t, out, "+![cat photo](https://cdn.example.net/img/cat-photo.png)\n")

	b, err := os.ReadFile(note)
	require.NoError(t, err)
	assert.Equal(t, "Hi\n![[cat photo.png]]\n", string(b))
	assert.FileExists(t, filepath.Join(root, "attachments", "cat photo.png"))
}

func TestPublishRequiresConfig(t *testing.T) {
	isolateConfig(t)
	t.Setenv("BUNNY_ACCESS_KEY", "")
	note := writeVaultFile(t, t.TempDir(), "n.md", "![[a.png]]")

	_, err := execute(t, "publish", note)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUNNY_ACCESS_KEY")
}

func TestPublishRequiresNotes(t *testing.T) {
	isolateConfig(t)
	_, err := execute(t, "publish")
	assert.Error(t, err)
}

func TestConfigShowMasksSecrets(t *testing.T) {
	isolateConfig(t)

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "zone: zone")
	assert.Contains(t, out, "cdn_hostname: cdn.example.net")
	assert.NotContains(t, out, "secret-access-key")
	assert.Contains(t, out, "secr••••ey")

	out, err = execute(t, "config", "show", "--show-secrets")
	require.NoError(t, err)
	assert.Contains(t, out, "secret-access-key")
}

func TestHistoryEmpty(t *testing.T) {
	isolateConfig(t)
	out, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No uploads recorded yet.")
}

func TestCollectNotes(t *testing.T) {
	root := t.TempDir()
	writeVaultFile(t, root, "Posts/a.md", "")
	writeVaultFile(t, root, "Posts/2024/b.md", "")
	writeVaultFile(t, root, "Drafts/c.md", "")
	v, err := vault.Open(root)
	require.NoError(t, err)

	notes, err := collectNotes(v, "Posts/**/*.md", []string{filepath.Join(root, "Drafts", "c.md"), filepath.Join(root, "Posts", "a.md")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Drafts/c.md", "Posts/a.md", "Posts/2024/b.md"}, notes)

	_, err = collectNotes(v, "", []string{filepath.Join(t.TempDir(), "outside.md")})
	assert.Error(t, err)
}

func TestFindVaultRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".obsidian"), 0755))
	deep := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0755))

	assert.Equal(t, root, findVaultRoot(deep))

	plain := t.TempDir()
	assert.Equal(t, plain, findVaultRoot(plain))
}

func TestSetupAnswersEnvValues(t *testing.T) {
	a := setupAnswers{
		zone:        " zone ",
		accessKey:   "key",
		cdnHost:     "cdn.example.net",
		altText:     true,
		provider:    config.ProviderGemini,
		providerKey: "g-key",
	}
	values := a.envValues()

	assert.Equal(t, "zone", values["BUNNY_STORAGE_ZONE"])
	assert.Equal(t, "", values["BUNNY_STORAGE_HOSTNAME"])
	assert.Equal(t, "true", values["BUNNY_ALT_TEXT"])
	assert.Equal(t, "false", values["BUNNY_DELETE_AFTER_UPLOAD"])
	assert.Equal(t, "gemini", values["BUNNY_ALT_TEXT_PROVIDER"])
	assert.Equal(t, "g-key", values["GEMINI_API_KEY"])
	assert.NotContains(t, values, "OPENAI_API_KEY")
}

func TestSetupAnswersProviderSwitch(t *testing.T) {
	a := setupAnswers{
		provider:        config.ProviderGemini,
		providerKey:     "sk-openai",
		initialProvider: config.ProviderOpenAI,
		initialKey:      "sk-openai",
	}
	values := a.envValues()
	assert.NotContains(t, values, "GEMINI_API_KEY")
	assert.NotContains(t, values, "OPENAI_API_KEY")

	a.providerKey = "g-key"
	assert.Equal(t, "g-key", a.envValues()["GEMINI_API_KEY"])

	a.provider = config.ProviderOpenAI
	a.providerKey = "sk-openai"
	assert.Equal(t, "sk-openai", a.envValues()["OPENAI_API_KEY"])
}

func TestDedentTextKeepsPercent(t *testing.T) {
	got := dedentText(`
		Resizes 100% of images.
		  Indented line.
	`)
	assert.Equal(t, "Resizes 100% of images.\n  Indented line.", got)
}
