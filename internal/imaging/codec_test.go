package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeDataURL(t *testing.T, dataURL string) (image.Image, string) {
	t.Helper()
	require.True(t, strings.HasPrefix(dataURL, "data:"), "payload must be a data URL")

	sep := strings.Index(dataURL, ";base64,")
	require.Greater(t, sep, 0, "payload must be base64 tagged")
	mimeType := dataURL[len("data:"):sep]

	raw, err := base64.StdEncoding.DecodeString(dataURL[sep+len(";base64,"):])
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img, mimeType
}

func TestStageDownscalesLandscape(t *testing.T) {
	codec := NewCodec(Constraints{})

	staged, err := codec.Stage("wide.jpg", makeJPEG(t, 1600, 900))
	require.NoError(t, err)

	img, mimeType := decodeDataURL(t, staged.File)
	require.Equal(t, "image/jpeg", mimeType)
	require.Equal(t, 800, img.Bounds().Dx())
	require.Equal(t, 450, img.Bounds().Dy())
}

func TestStageDownscalesPortrait(t *testing.T) {
	codec := NewCodec(Constraints{})

	staged, err := codec.Stage("tall.jpg", makeJPEG(t, 900, 1600))
	require.NoError(t, err)

	img, _ := decodeDataURL(t, staged.File)
	require.Equal(t, 337, img.Bounds().Dx())
	require.Equal(t, 600, img.Bounds().Dy())
}

func TestStageNeverUpsizes(t *testing.T) {
	codec := NewCodec(Constraints{})

	staged, err := codec.Stage("small.png", makePNG(t, 400, 300))
	require.NoError(t, err)

	img, mimeType := decodeDataURL(t, staged.File)
	require.Equal(t, "image/png", mimeType)
	require.Equal(t, 400, img.Bounds().Dx())
	require.Equal(t, 300, img.Bounds().Dy())
}

func TestStageRejectsOversizedInput(t *testing.T) {
	codec := NewCodec(Constraints{MaxSizeBytes: 64})

	_, err := codec.Stage("huge.jpg", makeJPEG(t, 100, 100))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, ReasonTooLarge, verr.Reason)
	require.Equal(t, "huge.jpg", verr.Name)
}

func TestStageRejectsUnsupportedKind(t *testing.T) {
	codec := NewCodec(Constraints{})

	_, err := codec.Stage("notes.txt", []byte("definitely not an image"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, ReasonInvalidType, verr.Reason)
}

func TestStageRejectsTruncatedImage(t *testing.T) {
	codec := NewCodec(Constraints{})

	// Valid JPEG magic so sniffing passes, then garbage.
	data := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("truncated")...)
	_, err := codec.Stage("broken.jpg", data)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, ReasonDecodeFailed, verr.Reason)
}

func TestStageRecordsOriginalNameAndSize(t *testing.T) {
	codec := NewCodec(Constraints{})
	data := makeJPEG(t, 1600, 900)

	staged, err := codec.Stage("holiday.jpg", data)
	require.NoError(t, err)
	require.Equal(t, "holiday.jpg", staged.Name)
	require.Equal(t, int64(len(data)), staged.Size, "size must be the pre-resize byte count")
	require.Equal(t, staged.File, staged.Preview)
	require.NotEmpty(t, staged.ID)

	again, err := codec.Stage("holiday.jpg", data)
	require.NoError(t, err)
	require.NotEqual(t, staged.ID, again.ID, "each call must assign a fresh id")
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{1600, 900, 800, 450},
		{900, 1600, 337, 600},
		{800, 600, 800, 600},
		{400, 300, 400, 300},
		{800, 800, 800, 800}, // square scales against the width bound
		{2000, 2000, 800, 800},
	}
	for _, tt := range tests {
		gotW, gotH := targetSize(tt.w, tt.h, 800, 600)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("targetSize(%d, %d) = %dx%d, expected %dx%d", tt.w, tt.h, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}
