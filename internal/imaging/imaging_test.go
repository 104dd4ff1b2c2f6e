package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h, c)))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestProcessSmallJPEG(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodeJPEG(t, 100, 80)))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", photo.MIME)
	assert.Equal(t, 100, photo.Width)
	assert.Equal(t, 80, photo.Height)

	w, h := decodeSize(t, photo.Thumbnail)
	assert.Equal(t, 100, w)
	assert.Equal(t, 80, h)
}

func TestProcessDownscalesAndThumbnails(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodePNG(t, 2000, 1000, color.RGBA{0, 0, 255, 255})))
	require.NoError(t, err)

	w, h := decodeSize(t, photo.Data)
	assert.Equal(t, MaxDimension, w)
	assert.Equal(t, 512, h)

	w, h = decodeSize(t, photo.Thumbnail)
	assert.Equal(t, ThumbnailDimension, w)
	assert.Equal(t, 128, h)
}

func TestProcessFlattensTransparency(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodePNG(t, 10, 10, color.RGBA{0, 0, 0, 0})))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(photo.Data))
	require.NoError(t, err)
	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestProcessRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"text", []byte("this is not an image"), ErrUnsupportedFormat},
		{"gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"), ErrUnsupportedFormat},
		{"truncated jpeg", encodeJPEG(t, 50, 50)[:40], ErrUnsupportedFormat},
		{"too large", append([]byte("\xff\xd8\xff"), make([]byte, MaxUploadBytes)...), ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Process(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
