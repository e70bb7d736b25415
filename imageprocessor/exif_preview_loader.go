package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"os/exec"

	"imagecluster/logging"

	"github.com/barasher/go-exiftool"
)

// ExifPreviewLoader decodes containers Go cannot read (HEIC/HEIF) through the
// JPEG preview exiftool finds embedded in them
type ExifPreviewLoader struct {
	BaseImageLoader

	// PreviewTags lists the embedded image tags to try, best first
	PreviewTags []string
}

// NewExifPreviewLoader creates a loader for HEIC/HEIF files
func NewExifPreviewLoader() *ExifPreviewLoader {
	return &ExifPreviewLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatHEIC},
		},
		PreviewTags: []string{
			"PreviewImage",
			"OtherImage",
			"ThumbnailImage",
		},
	}
}

// LoadImage extracts and decodes the first available preview
func (l *ExifPreviewLoader) LoadImage(path string) (image.Image, error) {
	logging.DebugLog("Loading %s through embedded preview", path)

	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool unavailable for %s: %w", path, err)
	}
	defer et.Close()

	fileInfos := et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return nil, newImageLoadError("no metadata extracted", path)
	}
	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return nil, fmt.Errorf("error extracting metadata from %s: %w", path, fileInfo.Err)
	}

	for _, tag := range l.PreviewTags {
		if _, ok := fileInfo.Fields[tag]; !ok {
			continue
		}

		// go-exiftool reports binary tags only as a size placeholder
		data, err := extractBinaryTag(path, tag)
		if err != nil {
			logging.LogWarning("exiftool %s extraction failed for %s: %v", tag, path, err)
			continue
		}

		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			logging.DebugLog("Preview %s of %s is not decodable: %v", tag, path, err)
			continue
		}
		logging.DebugLog("Decoded %s preview of %s", tag, path)
		return img, nil
	}

	return nil, newImageLoadError("no decodable preview image", path)
}

// extractBinaryTag runs exiftool to dump one binary tag
func extractBinaryTag(path, tag string) ([]byte, error) {
	cmd := exec.Command("exiftool", "-b", "-"+tag, path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w, stderr: %s", err, stderr.String())
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s", tag)
	}
	return out, nil
}
