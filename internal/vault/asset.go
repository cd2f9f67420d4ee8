package vault

import (
	"io/fs"
	"path"
	"strings"
)

// Kind classifies an asset by file extension.
type Kind int

const (
	KindUnsupported Kind = iota
	KindImage
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unsupported"
	}
}

var kindsByExt = map[string]Kind{
	"png":  KindImage,
	"jpg":  KindImage,
	"jpeg": KindImage,
	"gif":  KindImage,
	"webp": KindImage,
	"mp4":  KindVideo,
	"mov":  KindVideo,
	"webm": KindVideo,
}

// ClassifyExt returns the kind for an extension, with or without the leading dot.
func ClassifyExt(ext string) Kind {
	return kindsByExt[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// Asset is a resolved media file inside a vault.
type Asset struct {
	Path string // Slash-separated path relative to the vault root
	Name string // Base name including extension
	Ext  string // Lower-case extension without the dot
	Size int64
	Kind Kind

	fsys fs.FS
}

func newAsset(fsys fs.FS, p string, size int64) *Asset {
	name := path.Base(p)
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	return &Asset{
		Path: p,
		Name: name,
		Ext:  ext,
		Size: size,
		Kind: ClassifyExt(ext),
		fsys: fsys,
	}
}

// Filename returns the asset's base name.
func (a *Asset) Filename() string {
	return a.Name
}

// ReadAll reads the full contents of the asset.
func (a *Asset) ReadAll() ([]byte, error) {
	return fs.ReadFile(a.fsys, a.Path)
}
