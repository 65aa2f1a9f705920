// Package imaging prepares avatars: uploads are cropped square, scaled
// down and re-encoded as JPEG, and users without one get a generated
// identicon.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	"image/png"
	"mime"
	"net/http"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// JPEGQuality is used for every re-encoded avatar.
const JPEGQuality = 85

var (
	// ErrEmpty is returned for an upload with no content.
	ErrEmpty = errors.New("no file uploaded")
	// ErrTooLarge is returned when the upload exceeds the byte limit.
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupported is returned for content that is not a supported image.
	ErrUnsupported = errors.New("unsupported image type")
	// ErrMismatch is returned when the declared type disagrees with the content.
	ErrMismatch = errors.New("image content type mismatch")
)

// Avatar is an encoded image ready for upload or serving.
type Avatar struct {
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// Normalize validates an uploaded avatar and returns it cropped to a
// centred square no larger than maxSize pixels, encoded as JPEG.
func Normalize(data []byte, declaredType string, maxBytes int64, maxSize int) (*Avatar, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w (max %dMB)", ErrTooLarge, maxBytes/(1<<20))
	}

	detected := normalizeContentType(http.DetectContentType(data))
	if !isAllowedMIME(detected) {
		return nil, ErrUnsupported
	}
	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if declared := normalizeContentType(declaredType); strings.HasPrefix(declared, "image/") &&
		!sameType(declared, formatToMIME(format)) {
		return nil, ErrMismatch
	}

	img := resizeToFit(cropSquare(decoded), maxSize)
	out, err := encodeJPEG(img)
	if err != nil {
		return nil, fmt.Errorf("encoding avatar: %w", err)
	}
	b := img.Bounds()
	return &Avatar{ContentType: "image/jpeg", Data: out, Width: b.Dx(), Height: b.Dy()}, nil
}

func cropSquare(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h || w <= 0 || h <= 0 {
		return src
	}
	side := min(w, h)
	origin := image.Point{X: b.Min.X + (w-side)/2, Y: b.Min.Y + (h-side)/2}
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, origin, draw.Src)
	return dst
}

func resizeToFit(src image.Image, maxSize int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return src
	}
	scale := min(float64(maxSize)/float64(w), float64(maxSize)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func isAllowedMIME(ct string) bool {
	switch ct {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

func sameType(a, b string) bool {
	if a == "image/jpg" {
		a = "image/jpeg"
	}
	return a == b
}

func formatToMIME(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return ""
}

// DefaultAvatar renders a size x size identicon for userID as PNG. The
// same id always produces the same image.
func DefaultAvatar(userID uint, size int) []byte {
	if size <= 0 {
		size = 128
	}
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "avatar:%d", userID)
	sum := h.Sum64()

	bg := color.RGBA{R: 0xee, G: 0xee, B: 0xf2, A: 0xff}
	fg := color.RGBA{
		R: uint8(sum>>40)%160 + 48,
		G: uint8(sum>>48)%160 + 48,
		B: uint8(sum>>56)%160 + 48,
		A: 0xff,
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	// 5x5 grid mirrored around the middle column; 15 bits decide the cells.
	const grid = 5
	cell := size / (grid + 1)
	pad := (size - cell*grid) / 2
	for row := 0; row < grid; row++ {
		for col := 0; col < 3; col++ {
			if sum>>(row*3+col)&1 == 0 {
				continue
			}
			for _, c := range []int{col, grid - 1 - col} {
				r := image.Rect(pad+c*cell, pad+row*cell, pad+(c+1)*cell, pad+(row+1)*cell)
				draw.Draw(img, r, &image.Uniform{C: fg}, image.Point{}, draw.Src)
			}
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
