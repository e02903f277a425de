package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
)

const (
	// MaxImageWidth is the widest feature image stored; wider images are scaled down.
	MaxImageWidth = 1600
	// MaxImagePixels bounds width*height of an image before it is decoded.
	MaxImagePixels = 40_000_000
	jpegQuality    = 85
)

// ErrTooManyPixels is returned for images whose declared dimensions exceed
// MaxImagePixels.
var ErrTooManyPixels = errors.New("media: image dimensions too large")

// Normalize scales images wider than MaxImageWidth down and re-encodes
// them as JPEG. Images that are small enough, or that cannot be decoded,
// are returned unchanged. Images declaring more than MaxImagePixels are
// rejected from their header without decoding the pixel data.
func Normalize(obj Object) (Object, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(obj.Data))
	if err != nil {
		return obj, nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return Object{}, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	if cfg.Width <= MaxImageWidth {
		return obj, nil
	}

	img, _, err := image.Decode(bytes.NewReader(obj.Data))
	if err != nil {
		return obj, nil
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	newH := h * MaxImageWidth / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, MaxImageWidth, newH))
	// JPEG has no alpha; flatten onto white.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return obj, nil
	}
	return Object{
		Name:        strings.TrimSuffix(obj.Name, filepath.Ext(obj.Name)) + ".jpg",
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
	}, nil
}
