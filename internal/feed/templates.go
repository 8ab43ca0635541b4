package feed

import (
	"context"
	"os"
	"path/filepath"
)

// TemplateSource returns the bytes of a feed template. Implementations
// must return a fresh copy per call; the engine never caches templates.
type TemplateSource interface {
	Template(ctx context.Context, path string) ([]byte, error)
}

// DirTemplates reads templates from a channel directory on every call.
type DirTemplates string

func (d DirTemplates) Template(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Rooting the path first keeps it inside the directory.
	return os.ReadFile(filepath.Join(string(d), filepath.Clean("/"+path)))
}
