package vision

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

// Accepted image types.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

// NewImage sniffs data and rejects anything but JPEG or PNG.
func NewImage(name string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty file", ErrUnsupportedImage)
	}
	mime := http.DetectContentType(data)
	if mime != MIMEJPEG && mime != MIMEPNG {
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
	}
	return Image{Name: name, MIMEType: mime, Data: data}, nil
}

// Ext is the file extension for the image type, falling back to the upload name.
func (i Image) Ext() string {
	switch i.MIMEType {
	case MIMEJPEG:
		return ".jpg"
	case MIMEPNG:
		return ".png"
	}
	return strings.ToLower(filepath.Ext(i.Name))
}
