package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestSingle(t *testing.T) {
	doc := []byte(`<?xml version="1.0"?><rss><ttl>15</ttl></rss>`)
	z, err := Single("city_diff.xml", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(z), int64(len(z)))
	if err != nil {
		t.Fatalf("not a zip: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "city_diff.xml" {
		t.Fatalf("expected a single city_diff.xml entry, got %d files", len(zr.File))
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, doc) {
		t.Fatalf("entry content differs: %q", got)
	}
}

func TestSingleRequiresName(t *testing.T) {
	if _, err := Single("", []byte("x")); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}
