// Package imaging normalizes photos attached to item reports.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// Output sizes and quality.
const (
	MaxDimension       = 1024
	ThumbnailDimension = 256
	JPEGQuality        = 85
)

// MaxUploadBytes caps the raw upload size.
const MaxUploadBytes = 10 << 20

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image too large")
)

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a processed upload: a bounded JPEG and its thumbnail.
type Photo struct {
	Data      []byte
	Thumbnail []byte
	MIME      string
	Width     int
	Height    int
}

// Process validates an upload by sniffing its bytes, flattens transparency
// onto white, and re-encodes it as JPEG bounded by MaxDimension plus a
// ThumbnailDimension thumbnail.
func Process(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, MaxUploadBytes)
	}

	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s (only JPEG and PNG accepted)", ErrUnsupportedFormat, detected)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrUnsupportedFormat, err)
	}

	full := fit(src, MaxDimension)
	fullJPEG, err := encode(full)
	if err != nil {
		return nil, err
	}
	thumbJPEG, err := encode(fit(full, ThumbnailDimension))
	if err != nil {
		return nil, err
	}

	b := full.Bounds()
	return &Photo{
		Data:      fullJPEG,
		Thumbnail: thumbJPEG,
		MIME:      "image/jpeg",
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales img with Catmull-Rom so neither side exceeds maxDim, keeping
// the aspect ratio, and composites it over a white background.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	newW, newH := w, h
	if w > maxDim || h > maxDim {
		if w > h {
			newW = maxDim
			newH = h * maxDim / w
		} else {
			newH = maxDim
			newW = w * maxDim / h
		}
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if newW == w && newH == h {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
