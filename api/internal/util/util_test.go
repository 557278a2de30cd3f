package util

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpegHead = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	pngHead  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}
)

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("  {\"a\":1} "))
}

func TestSniffImageMIME(t *testing.T) {
	assert.Equal(t, "image/jpeg", SniffImageMIME(jpegHead))
	assert.Equal(t, "image/png", SniffImageMIME(pngHead))
	assert.Equal(t, "application/octet-stream", SniffImageMIME(nil))
}

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString(jpegHead)

	b, hint, err := DecodeBase64MaybeDataURL(enc)
	require.NoError(t, err)
	assert.Equal(t, jpegHead, b)
	assert.Empty(t, hint)

	b, hint, err = DecodeBase64MaybeDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHead))
	require.NoError(t, err)
	assert.Equal(t, pngHead, b)
	assert.Equal(t, "image/png", hint)

	_, _, err = DecodeBase64MaybeDataURL("not base64 at all!")
	assert.Error(t, err)
}

func TestPickMIME(t *testing.T) {
	assert.Equal(t, "image/webp", PickMIME("image/webp", "image/png", jpegHead))
	assert.Equal(t, "image/png", PickMIME("application/octet-stream", "image/png", jpegHead))
	assert.Equal(t, "image/jpeg", PickMIME("", "", jpegHead))
	assert.Equal(t, "image/jpeg", PickMIME("", "", nil))
}

func TestExtForMIME(t *testing.T) {
	assert.Equal(t, "png", ExtForMIME("image/png"))
	assert.Equal(t, "jpg", ExtForMIME("image/jpeg"))
	assert.Equal(t, "jpg", ExtForMIME("application/octet-stream"))
}
