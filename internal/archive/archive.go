// Package archive packages documents the way the client downloads them:
// a zip holding exactly one file.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"time"
)

var ErrEmptyName = errors.New("archive entry name is empty")

// Single returns a zip archive containing data stored as name.
func Single(name string, data []byte) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
