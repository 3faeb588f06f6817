// Package imaging turns arbitrary user-selected image files into
// bounded, transport-safe attachments: validate, decode, downscale,
// re-encode, and wrap the result as a data URL that embeds directly in a
// watched record.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// Validation failure reasons.
const (
	ReasonTooLarge     = "too-large"
	ReasonInvalidType  = "invalid-type"
	ReasonDecodeFailed = "decode-failed"
	ReasonEncodeFailed = "encode-failed"
)

// ValidationError reports why a single file was rejected by the codec.
type ValidationError struct {
	Name   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Constraints bound what the codec accepts and produces.
type Constraints struct {
	MaxSizeBytes int64
	MaxWidth     int
	MaxHeight    int
	// Quality is the JPEG re-encode quality, 1-100.
	Quality int
	// AcceptedTypes lists allowed input MIME types.
	AcceptedTypes []string
}

// DefaultConstraints matches the bounds the watched-list UI has always
// used: 5 MB input cap, 800x600 output bound, quality 80.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxSizeBytes:  5 << 20,
		MaxWidth:      800,
		MaxHeight:     600,
		Quality:       80,
		AcceptedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	}
}

// StagedImage is a processed file ready to attach to a watched entry.
// Size is the pre-resize byte count of the original upload.
type StagedImage struct {
	ID      string
	File    string
	Name    string
	Size    int64
	Preview string
}

// Codec stages raw image bytes under a fixed set of constraints.
type Codec struct {
	constraints Constraints
}

// NewCodec creates a codec. Zero-valued constraint fields fall back to
// the defaults.
func NewCodec(c Constraints) *Codec {
	defaults := DefaultConstraints()
	if c.MaxSizeBytes <= 0 {
		c.MaxSizeBytes = defaults.MaxSizeBytes
	}
	if c.MaxWidth <= 0 {
		c.MaxWidth = defaults.MaxWidth
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = defaults.MaxHeight
	}
	if c.Quality <= 0 || c.Quality > 100 {
		c.Quality = defaults.Quality
	}
	if len(c.AcceptedTypes) == 0 {
		c.AcceptedTypes = defaults.AcceptedTypes
	}
	return &Codec{constraints: c}
}

// Stage validates, decodes, downscales, and re-encodes one file. All
// failures come back as *ValidationError; the input is never modified.
func (c *Codec) Stage(name string, data []byte) (*StagedImage, error) {
	if int64(len(data)) > c.constraints.MaxSizeBytes {
		return nil, &ValidationError{Name: name, Reason: ReasonTooLarge}
	}

	mtype := mimetype.Detect(data)
	if !c.accepted(mtype) {
		return nil, &ValidationError{Name: name, Reason: ReasonInvalidType}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ValidationError{Name: name, Reason: ReasonDecodeFailed, Err: err}
	}

	bounds := src.Bounds()
	width, height := targetSize(bounds.Dx(), bounds.Dy(), c.constraints.MaxWidth, c.constraints.MaxHeight)

	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
		src = dst
	}

	payload, outType, err := c.encode(src, mtype.String())
	if err != nil {
		return nil, &ValidationError{Name: name, Reason: ReasonEncodeFailed, Err: err}
	}

	encoded := toDataURL(outType, payload)
	return &StagedImage{
		ID:      uuid.NewString(),
		File:    encoded,
		Name:    name,
		Size:    int64(len(data)),
		Preview: encoded,
	}, nil
}

func (c *Codec) accepted(mtype *mimetype.MIME) bool {
	for _, t := range c.constraints.AcceptedTypes {
		if mtype.Is(t) {
			return true
		}
	}
	return false
}

// encode re-encodes the pixel buffer into the input kind. WebP and BMP
// have no encoder in pure Go, so those inputs come back as JPEG.
func (c *Codec) encode(img image.Image, inputType string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch inputType {
	case "image/png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	case "image/gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/gif", nil
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.constraints.Quality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}

// targetSize bounds the dimensions preserving aspect ratio. Landscape
// and square images scale against the width bound, portrait against the
// height bound. Images already within bounds keep their dimensions.
func targetSize(width, height, maxWidth, maxHeight int) (int, int) {
	if width >= height {
		if width > maxWidth {
			height = int(float64(height) * float64(maxWidth) / float64(width))
			width = maxWidth
		}
	} else {
		if height > maxHeight {
			width = int(float64(width) * float64(maxHeight) / float64(height))
			height = maxHeight
		}
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

func toDataURL(mimeType string, payload []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(payload)
}
