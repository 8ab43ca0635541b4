package relay

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Output is the fixed image format a client expects.
type Output struct {
	Width   int
	Height  int
	Quality int
}

var (
	// CameraOutput is the only snapshot size the client renders.
	CameraOutput = Output{Width: 240, Height: 180, Quality: 80}
	// CloudOutput is the globe overlay texture.
	CloudOutput = Output{Width: 2048, Height: 1024, Quality: 85}
)

// maxSourcePixels rejects images whose header claims an absurd size
// before any pixel data is decoded.
const maxSourcePixels = 64 << 20

// Transcode decodes data (JPEG, PNG, GIF, WebP or BMP), scales it to
// exactly out.Width x out.Height and re-encodes it as JPEG. Sources with
// another aspect ratio are cropped around their centre first, never stretched.
func Transcode(data []byte, out Output) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxSourcePixels {
		return nil, fmt.Errorf("unsupported image size %dx%d", cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, out.Width, out.Height))
	// JPEG has no alpha; transparent sources land on white.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Rect, src, coverRect(src.Bounds(), out.Width, out.Height), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: out.Quality}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// coverRect returns the largest centred sub-rectangle of r with the w:h
// aspect ratio.
func coverRect(r image.Rectangle, w, h int) image.Rectangle {
	sw, sh := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 || sw <= 0 || sh <= 0 {
		return r
	}
	if sw*h > sh*w {
		cw := sh * w / h
		x0 := r.Min.X + (sw-cw)/2
		return image.Rect(x0, r.Min.Y, x0+cw, r.Max.Y)
	}
	ch := sw * h / w
	y0 := r.Min.Y + (sh-ch)/2
	return image.Rect(r.Min.X, y0, r.Max.X, y0+ch)
}
