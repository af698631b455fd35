package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// ErrNotFound is returned when no indexed file matches a texture name.
var ErrNotFound = errors.New("texture: not found")

type decodeFunc func(io.Reader) (image.Image, error)

// format describes one supported texture container: the header to skip
// before the embedded image and the decoder for it.
type format struct {
	skip   int
	decode decodeFunc
	alpha  bool
}

// TGA carries no magic number, so decoders are picked by extension rather
// than sniffed with image.Decode.
var formats = map[string]format{
	".ozj":  {skip: 24, decode: jpeg.Decode},
	".ozt":  {skip: 4, decode: tga.Decode, alpha: true},
	".jpg":  {decode: jpeg.Decode},
	".jpeg": {decode: jpeg.Decode},
	".tga":  {decode: tga.Decode, alpha: true},
	".png":  {decode: png.Decode, alpha: true},
	".webp": {decode: webp.Decode, alpha: true},
	".bmp":  {decode: bmp.Decode},
}

// Supported reports whether path has a loadable texture extension.
func Supported(path string) bool {
	_, ok := formats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadTexture reads a texture file and returns an NRGBA image.
func LoadTexture(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	img, err := Decode(raw, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("texture: %s: %w", path, err)
	}
	return img, nil
}

// Decode decodes raw texture data of the given extension.
func Decode(raw []byte, ext string) (*image.NRGBA, error) {
	ext = strings.ToLower(ext)
	f, ok := formats[ext]
	if !ok {
		return nil, fmt.Errorf("unknown extension %q", ext)
	}
	if len(raw) <= f.skip {
		return nil, fmt.Errorf("%s data too short (%d bytes)", ext, len(raw))
	}

	img, err := f.decode(bytes.NewReader(raw[f.skip:]))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ext, err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA format with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
