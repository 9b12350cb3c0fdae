package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
)

func TestNewImage(t *testing.T) {
	img, err := NewImage("site.PNG", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, MIMEPNG, img.MIMEType)
	assert.Equal(t, ".png", img.Ext())

	img, err = NewImage("photo.jpeg", jpegHeader)
	require.NoError(t, err)
	assert.Equal(t, MIMEJPEG, img.MIMEType)
	assert.Equal(t, ".jpg", img.Ext())
}

func TestNewImageRejects(t *testing.T) {
	_, err := NewImage("a.gif", []byte("GIF89a......"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = NewImage("a.png", []byte("just text"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = NewImage("a.png", nil)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
