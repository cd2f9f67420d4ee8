package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ericmwalk/obsidian-bunny-publisher/internal/embed"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// ErrAssetNotFound is returned when an embed does not resolve to a file.
var ErrAssetNotFound = errors.New("asset not found")

const resolveCacheSize = 512

// Vault is a folder of notes and attachments on the local filesystem.
type Vault struct {
	root string
	fsys fs.FS

	mu       sync.Mutex
	index    map[string][]string // lower-case base name -> vault paths
	resolved *lru.Cache[string, string]
}

// Open returns a Vault rooted at dir.
func Open(dir string) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault %s is not a directory", abs)
	}

	cache, err := lru.New[string, string](resolveCacheSize)
	if err != nil {
		return nil, err
	}

	return &Vault{root: abs, fsys: os.DirFS(abs), resolved: cache}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string {
	return v.root
}

// RelPath converts a filesystem path to a slash-separated vault path.
func (v *Vault) RelPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(v.root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the vault %s", p, v.root)
	}
	return filepath.ToSlash(rel), nil
}

// ReadNote returns the text of the note at notePath (vault-relative).
func (v *Vault) ReadNote(notePath string) (string, error) {
	b, err := fs.ReadFile(v.fsys, notePath)
	if err != nil {
		return "", fmt.Errorf("failed to read note: %w", err)
	}
	return string(b), nil
}

// WriteNote replaces the contents of the note at notePath.
func (v *Vault) WriteNote(notePath, content string) error {
	full := v.abs(notePath)
	mode := os.FileMode(0644)
	if info, err := os.Stat(full); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(full, []byte(content), mode); err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}
	return nil
}

// Notes returns the markdown notes matching a doublestar pattern, sorted.
func (v *Vault) Notes(pattern string) ([]string, error) {
	var notes []string
	err := doublestar.GlobWalk(v.fsys, pattern, func(p string, d fs.DirEntry) error {
		if d.IsDir() || isHidden(p) || !strings.EqualFold(path.Ext(p), ".md") {
			return nil
		}
		notes = append(notes, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to match notes: %w", err)
	}
	sort.Strings(notes)
	return notes, nil
}

// Resolve finds the file an embed refers to, in the same order Obsidian does:
// relative to the note, relative to the vault root, then anywhere in the vault
// by name. The shortest matching path wins.
func (v *Vault) Resolve(token embed.Token, notePath string) (*Asset, error) {
	target := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(token.Target)), "/")
	if target == "" || target == "." {
		return nil, ErrAssetNotFound
	}

	noteDir := path.Dir(notePath)
	key := noteDir + "\x00" + target
	if p, ok := v.resolved.Get(key); ok {
		if a, err := v.stat(p); err == nil {
			return a, nil
		}
		v.resolved.Remove(key)
	}

	p, err := v.lookup(target, noteDir)
	if err != nil {
		return nil, err
	}
	v.resolved.Add(key, p)
	return v.stat(p)
}

func (v *Vault) lookup(target, noteDir string) (string, error) {
	for _, candidate := range []string{path.Join(noteDir, target), target} {
		if info, err := fs.Stat(v.fsys, candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	index, err := v.loadIndex()
	if err != nil {
		return "", err
	}

	var matches []string
	suffix := "/" + strings.ToLower(target)
	for _, p := range index[strings.ToLower(path.Base(target))] {
		lp := strings.ToLower(p)
		if lp == strings.ToLower(target) || strings.HasSuffix(lp, suffix) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return "", ErrAssetNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		if len(matches[i]) != len(matches[j]) {
			return len(matches[i]) < len(matches[j])
		}
		return matches[i] < matches[j]
	})
	return matches[0], nil
}

func (v *Vault) loadIndex() (map[string][]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.index != nil {
		return v.index, nil
	}

	index := make(map[string][]string)
	err := doublestar.GlobWalk(v.fsys, "**", func(p string, d fs.DirEntry) error {
		if d.IsDir() || isHidden(p) {
			return nil
		}
		base := strings.ToLower(path.Base(p))
		index[base] = append(index[base], p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index vault: %w", err)
	}

	log.Debug().Int("names", len(index)).Str("vault", v.root).Msg("indexed vault")
	v.index = index
	return index, nil
}

func (v *Vault) stat(p string) (*Asset, error) {
	info, err := fs.Stat(v.fsys, p)
	if err != nil || info.IsDir() {
		return nil, ErrAssetNotFound
	}
	return newAsset(v.fsys, p, info.Size()), nil
}

// Rename gives asset a new base name within its folder and returns the
// renamed asset.
func (v *Vault) Rename(asset *Asset, newName string) (*Asset, error) {
	if newName == "" || strings.ContainsAny(newName, `/\`) {
		return nil, fmt.Errorf("invalid file name %q", newName)
	}
	newPath := path.Join(path.Dir(asset.Path), newName)
	if newPath == asset.Path {
		return asset, nil
	}
	if _, err := os.Stat(v.abs(newPath)); err == nil {
		return nil, fmt.Errorf("failed to rename %s: %s already exists", asset.Path, newPath)
	}
	if err := os.Rename(v.abs(asset.Path), v.abs(newPath)); err != nil {
		return nil, fmt.Errorf("failed to rename %s: %w", asset.Path, err)
	}
	v.invalidate()

	renamed := *asset
	renamed.Path = newPath
	renamed.Name = newName
	return &renamed, nil
}

// Delete removes asset from the vault.
func (v *Vault) Delete(asset *Asset) error {
	if err := os.Remove(v.abs(asset.Path)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", asset.Path, err)
	}
	v.invalidate()
	return nil
}

func (v *Vault) invalidate() {
	v.mu.Lock()
	v.index = nil
	v.mu.Unlock()
	v.resolved.Purge()
}

func (v *Vault) abs(p string) string {
	return filepath.Join(v.root, filepath.FromSlash(p))
}

func isHidden(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
