package httpapi

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/lwp-live/internal/feed"
	"github.com/i474232898/lwp-live/internal/relay"
)

type fakeFeeds map[string][]byte

func (f fakeFeeds) Synthesize(ctx context.Context, feedID string) ([]byte, error) {
	doc, ok := f[feedID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", feed.ErrUnknownFeed, feedID)
	}
	if doc == nil {
		return nil, &feed.FatalError{Feed: feedID, Op: "read template", Err: os.ErrNotExist}
	}
	return doc, nil
}

type fakeImages struct {
	byID   map[string][]byte
	byFile map[string]string
}

func (f *fakeImages) ByFile(file string) (string, bool) {
	id, ok := f.byFile[file]
	return id, ok
}

func (f *fakeImages) Fetch(ctx context.Context, id string) ([]byte, error) {
	img := f.byID[id]
	if img == nil {
		return nil, fmt.Errorf("%w: %s", relay.ErrNotFound, id)
	}
	return img, nil
}

func newTestApp(t *testing.T, feeds fakeFeeds, images *fakeImages) (*fiber.App, string) {
	t.Helper()
	if images == nil {
		images = &fakeImages{}
	}
	dir := t.TempDir()
	write := func(rel, body string) {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("channel_list.xml", "<channels/>")
	write("FLWP00001/city_info.xml", "<cities/>")
	write("FUNVL0001/contentPubDate.xml", "<pubDate/>")
	write("testing/complete_location_list.loc", "<locations/>")

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, Deps{
		Feeds:      feeds,
		Images:     images,
		ChannelDir: dir,
		WebsiteDir: filepath.Join(dir, "websites"),
		PluginDir:  filepath.Join(dir, "plugins"),
		SessionID:  "ff80c0a6fc0307efe",
	})
	return app, dir
}

func do(t *testing.T, app *fiber.App, method, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, body
}

func unzipSingle(t *testing.T, data []byte) (string, []byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("not a zip: %v", err)
	}
	if len(zr.File) != 1 {
		t.Fatalf("expected one entry, got %d", len(zr.File))
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	return zr.File[0].Name, b
}

func TestCityFeedIsZippedWithoutCaching(t *testing.T) {
	app, _ := newTestApp(t, fakeFeeds{"city_diff": []byte("<rss>live</rss>")}, nil)

	resp, body := do(t, app, http.MethodGet, "/acfs/noauth/lwp/FLWP00001/us/en/city_diff.xml.zip")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="city_diff.xml.zip"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store, no-cache, must-revalidate, proxy-revalidate" {
		t.Fatalf("unexpected cache control %q", cc)
	}
	if resp.Header.Get("Pragma") != "no-cache" || resp.Header.Get("Expires") != "0" {
		t.Fatalf("missing no-cache headers")
	}

	name, doc := unzipSingle(t, body)
	if name != "city_diff.xml" || string(doc) != "<rss>live</rss>" {
		t.Fatalf("unexpected entry %s: %q", name, doc)
	}
}

func TestFeedErrors(t *testing.T) {
	app, _ := newTestApp(t, fakeFeeds{"cloud": nil}, nil)

	resp, _ := do(t, app, http.MethodGet, "/acfs/noauth/lwp/FLWP00001/cloud.xml.zip")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a fatal synthesis, got %d", resp.StatusCode)
	}

	resp, _ = do(t, app, http.MethodGet, "/acfs/noauth/lwp/FLWP00001/us/en/city_diff.xml.zip")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown feed, got %d", resp.StatusCode)
	}
}

func TestImages(t *testing.T) {
	images := &fakeImages{
		byID: map[string][]byte{
			"JAXX0085": []byte("jpeg-tokyo"),
			"cloud":    []byte("jpeg-cloud"),
		},
		byFile: map[string]string{
			"tokyo.jpg": "JAXX0085",
			"delhi.jpg": "INXX0038",
		},
	}
	app, _ := newTestApp(t, nil, images)

	cases := []struct {
		target string
		status int
		body   string
	}{
		{"/api/camera/JAXX0085", http.StatusOK, "jpeg-tokyo"},
		{"/1700000000000/tokyo.jpg", http.StatusOK, "jpeg-tokyo"},
		{"/acfs/noauth/lwp/FLWP00001/cloud.jpg", http.StatusOK, "jpeg-cloud"},
		{"/1700000000000/delhi.jpg", http.StatusNotFound, "Offline"},
		{"/1700000000000/rome.jpg", http.StatusNotFound, "Camera not configured"},
		{"/1700000000000/JAXX0085", http.StatusNotFound, "Camera not configured"},
		{"/1700000000000/cloud", http.StatusNotFound, "Camera not configured"},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			resp, body := do(t, app, http.MethodGet, tc.target)
			if resp.StatusCode != tc.status || string(body) != tc.body {
				t.Fatalf("got %d %q, want %d %q", resp.StatusCode, body, tc.status, tc.body)
			}
			if tc.status == http.StatusOK && resp.Header.Get("Content-Type") != "image/jpeg" {
				t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
			}
		})
	}
}

func TestStaticChannelDocuments(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)

	resp, body := do(t, app, http.MethodGet, "/acfs/lwp/info/us/en/channel_list.xml")
	if resp.StatusCode != http.StatusOK || string(body) != "<channels/>" {
		t.Fatalf("unexpected channel list %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("Content-Type") != "text/xml" {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}

	resp, body = do(t, app, http.MethodGet, "/acfs/noauth/lwp/FLWP00001/us/en/city_info.xml.zip")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if name, doc := unzipSingle(t, body); name != "city_info.xml" || string(doc) != "<cities/>" {
		t.Fatalf("unexpected entry %s %q", name, doc)
	}

	resp, _ = do(t, app, http.MethodGet, "/tcfs/lwp/FALPL0001/info/us/en/globe.xml.zip")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing zipped document, got %d", resp.StatusCode)
	}

	resp, _ = do(t, app, http.MethodGet, "/tcfs/lwp/FALPL0001/contentPubDate.xml")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a missing plain document, got %d", resp.StatusCode)
	}
}

func TestSessionEndpoints(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)

	resp, body := do(t, app, http.MethodGet, "/aas/client?cmd=challenge")
	if string(body) != "nonce=aaaaa&JSESSIONID=ff80c0a6fc0307efe" || resp.Header.Get("Content-Type") != "application/x-np-ticket" {
		t.Fatalf("unexpected challenge %q %q", body, resp.Header.Get("Content-Type"))
	}

	resp, body = do(t, app, http.MethodGet, "/aas/client?cmd=logout")
	if resp.StatusCode != http.StatusOK || len(body) != 0 {
		t.Fatalf("unexpected logout %d %q", resp.StatusCode, body)
	}

	resp, _ = do(t, app, http.MethodGet, "/aas/client?cmd=bogus")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown cmd, got %d", resp.StatusCode)
	}

	resp, _ = do(t, app, http.MethodPost, "/aas/client?cmd=login&JSESSIONID=abc123")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Set-Cookie") != "JSESSIONID=abc123; Path=/" {
		t.Fatalf("unexpected login %d %q", resp.StatusCode, resp.Header.Get("Set-Cookie"))
	}

	resp, _ = do(t, app, http.MethodPost, "/aas/client?cmd=login")
	if resp.Header.Get("Set-Cookie") != "JSESSIONID=ff80c0a6fc0307efe; Path=/" {
		t.Fatalf("expected default session cookie, got %q", resp.Header.Get("Set-Cookie"))
	}

	resp, body = do(t, app, http.MethodGet, "/stats/watcher?cmd=g")
	if string(body) != "save-uid=ff80c0a6fc0307efe&delta-value=0&abs-value=1&country=en" ||
		resp.Header.Get("Content-Type") != "application/x-cw-watcher-status" {
		t.Fatalf("unexpected watcher status %q", body)
	}

	resp, body = do(t, app, http.MethodGet, "/stats/location")
	if string(body) != "<locations/>" || resp.Header.Get("Set-Cookie") != "cwsessionid=ff80c0a6fc0307efe; Path=/" {
		t.Fatalf("unexpected location stats %q %q", body, resp.Header.Get("Set-Cookie"))
	}
}

func TestCatchAllAndHealth(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)

	resp, body := do(t, app, http.MethodPost, "/lwp/some/unknown/path")
	if resp.StatusCode != http.StatusOK || string(body) != "boo" {
		t.Fatalf("unexpected catch-all %d %q", resp.StatusCode, body)
	}

	resp, _ = do(t, app, http.MethodGet, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected healthy, got %d", resp.StatusCode)
	}
}

func TestErrorHandlerUsesFiberCode(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fmt.Errorf("wrapped: %w", fiber.NewError(fiber.StatusTeapot, "short and stout"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	resp, _ := do(t, app, http.MethodGet, "/teapot")
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", resp.StatusCode)
	}
	resp, _ = do(t, app, http.MethodGet, "/plain")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
