// Package imaging turns uploaded profile pictures into square JPEG thumbnails.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register gif
	"image/jpeg"
	_ "image/png" // register png
	"io"

	"golang.org/x/image/draw"
)

const (
	DefaultSize    = 500
	DefaultQuality = 85
	ContentType    = "image/jpeg"
)

var (
	ErrTooLarge    = errors.New("image exceeds the maximum upload size")
	ErrUnsupported = errors.New("unsupported image format")
	ErrEmpty       = errors.New("image is empty")
)

// Thumbnail reads at most maxBytes from r, crops the image to a centred square
// and scales it to size x size. The result is JPEG encoded.
func Thumbnail(r io.Reader, maxBytes int64, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUnsupported
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, squareCrop(src.Bounds()), draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: DefaultQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return out.Bytes(), nil
}

// squareCrop returns the largest centred square inside b.
func squareCrop(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w == h {
		return b
	}
	if w > h {
		off := (w - h) / 2
		return image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+h, b.Max.Y)
	}
	off := (h - w) / 2
	return image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+w)
}
