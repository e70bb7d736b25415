package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"imagecluster/logging"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifThumbnailLoader recovers JPEGs whose main image cannot be decoded by
// falling back to the thumbnail stored in their EXIF block
type ExifThumbnailLoader struct {
	BaseImageLoader
}

// NewExifThumbnailLoader creates the thumbnail fallback for JPEG files
func NewExifThumbnailLoader() *ExifThumbnailLoader {
	return &ExifThumbnailLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatJPEG},
		},
	}
}

// LoadImage decodes the embedded EXIF thumbnail
func (l *ExifThumbnailLoader) LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("no exif data in %s: %w", path, err)
	}

	thumb, err := x.JpegThumbnail()
	if err != nil {
		return nil, fmt.Errorf("no exif thumbnail in %s: %w", path, err)
	}

	img, err := jpeg.Decode(bytes.NewReader(thumb))
	if err != nil {
		return nil, newImageLoadError(fmt.Sprintf("corrupt exif thumbnail (%v)", err), path)
	}
	logging.LogWarning("Using EXIF thumbnail of %s, main image is unreadable", path)
	return img, nil
}
