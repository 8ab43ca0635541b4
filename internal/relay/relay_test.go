package relay

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.NRGBA{B: 255, A: 128})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func assertJPEG(t *testing.T, data []byte, w, h int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not an image: %v", err)
	}
	if format != "jpeg" || cfg.Width != w || cfg.Height != h {
		t.Fatalf("expected %dx%d jpeg, got %dx%d %s", w, h, cfg.Width, cfg.Height, format)
	}
}

func TestFetchLiveImage(t *testing.T) {
	body := encodeJPEG(t, 640, 480)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	r := New(srv.Client(), []Source{{ID: "JAXX0085", File: "tokyo.jpg", URL: srv.URL, Output: CameraOutput, Timeout: time.Second}}, nil)

	img, err := r.Fetch(context.Background(), "JAXX0085")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	assertJPEG(t, img, 240, 180)
}

func TestByFileResolvesCameraFilesOnly(t *testing.T) {
	r := New(http.DefaultClient, []Source{
		{ID: "JAXX0085", File: "tokyo.jpg", Output: CameraOutput},
		{ID: CloudID, Output: CloudOutput},
	}, nil)

	if id, ok := r.ByFile("tokyo.jpg"); !ok || id != "JAXX0085" {
		t.Fatalf("expected tokyo.jpg to resolve to JAXX0085, got %q %v", id, ok)
	}
	for _, name := range []string{"JAXX0085", CloudID, "cloud.jpg"} {
		if id, ok := r.ByFile(name); ok {
			t.Fatalf("%s must not resolve as a file, got %q", name, id)
		}
	}
	if _, err := r.Fetch(context.Background(), "tokyo.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected Fetch to take ids only, got %v", err)
	}
}

func TestFetchHTTPErrorUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "camera offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	fb := filepath.Join(t.TempDir(), "paris.png")
	if err := os.WriteFile(fb, encodePNG(t, 320, 200), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(srv.Client(), []Source{{ID: "FRXX0076", File: "paris.jpg", URL: srv.URL, Fallback: fb, Output: CameraOutput, Timeout: time.Second}}, nil)
	img, err := r.Fetch(context.Background(), "FRXX0076")
	if err != nil {
		t.Fatalf("expected fallback image, got %v", err)
	}
	assertJPEG(t, img, 240, 180)
}

func TestFetchUnreachableWithoutFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := New(http.DefaultClient, []Source{{ID: "INXX0038", URL: url, Output: CameraOutput, Timeout: time.Second}}, nil)
	img, err := r.Fetch(context.Background(), "INXX0038")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if img != nil {
		t.Fatalf("expected no bytes, got %d", len(img))
	}
}

func TestFetchStalledSourceTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	r := New(srv.Client(), []Source{{ID: "UKXX0085", URL: srv.URL, Output: CameraOutput, Timeout: 50 * time.Millisecond}}, nil)

	start := time.Now()
	_, err := r.Fetch(context.Background(), "UKXX0085")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("stalled source held the relay for %s", elapsed)
	}
}

func TestFetchUndecodableBodyUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>login required</html>"))
	}))
	defer srv.Close()

	fb := filepath.Join(t.TempDir(), "cloud.jpg")
	if err := os.WriteFile(fb, encodeJPEG(t, 100, 50), 0o644); err != nil {
		t.Fatal(err)
	}

	out := Output{Width: 64, Height: 32, Quality: 85}
	r := New(srv.Client(), []Source{{ID: CloudID, URL: srv.URL, Fallback: fb, Output: out, Timeout: time.Second}}, nil)
	img, err := r.Fetch(context.Background(), CloudID)
	if err != nil {
		t.Fatalf("expected fallback image, got %v", err)
	}
	assertJPEG(t, img, 64, 32)
}

func TestFetchUnknownSource(t *testing.T) {
	r := New(http.DefaultClient, nil, nil)
	if _, err := r.Fetch(context.Background(), "nowhere.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, ok := r.ByFile("nowhere.jpg"); ok {
		t.Fatalf("unexpected source")
	}
}

func TestTranscodeRejectsGarbage(t *testing.T) {
	if _, err := Transcode([]byte("not an image"), CameraOutput); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestCoverRect(t *testing.T) {
	cases := []struct {
		src  image.Rectangle
		want image.Rectangle
	}{
		{image.Rect(0, 0, 640, 480), image.Rect(0, 0, 640, 480)},
		{image.Rect(0, 0, 1920, 1080), image.Rect(240, 0, 1680, 1080)},
		{image.Rect(0, 0, 480, 480), image.Rect(0, 60, 480, 420)},
		{image.Rect(10, 10, 170, 100), image.Rect(30, 10, 150, 100)},
	}
	for _, tc := range cases {
		if got := coverRect(tc.src, 240, 180); got != tc.want {
			t.Errorf("coverRect(%v) = %v, want %v", tc.src, got, tc.want)
		}
	}
}

func TestTranscodeCropsWideSources(t *testing.T) {
	// 16:9 frame: blue centre, red bands in the columns a 4:3 crop drops.
	src := image.NewRGBA(image.Rect(0, 0, 320, 180))
	for y := 0; y < 180; y++ {
		for x := 0; x < 320; x++ {
			c := color.RGBA{B: 255, A: 255}
			if x < 40 || x >= 280 {
				c = color.RGBA{R: 255, A: 255}
			}
			src.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	out, err := Transcode(buf.Bytes(), CameraOutput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertJPEG(t, out, 240, 180)

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	for _, x := range []int{2, 120, 237} {
		r, _, b, _ := img.At(x, 90).RGBA()
		if r > b {
			t.Fatalf("column %d is red; the source was stretched instead of cropped", x)
		}
	}
}
