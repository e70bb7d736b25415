package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"imagecluster/logging"
)

// ImageLoaderRegistry maps extensions to chains of loaders. Loaders of a
// chain are tried in registration order, then the registry-wide fallbacks.
type ImageLoaderRegistry struct {
	loaders   map[string][]ImageLoader
	fallbacks []ImageLoader
	mutex     sync.RWMutex
}

// NewImageLoaderRegistry creates a registry with the pure Go loaders
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string][]ImageLoader),
	}

	registry.registerStandardLoaders()
	registry.registerHeicLoaders()

	return registry
}

// registerStandardLoaders registers the decoder-backed loader for every
// format Go can decode natively
func (r *ImageLoaderRegistry) registerStandardLoaders() {
	standardLoader := NewStandardImageLoader()
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tif", ".tiff"} {
		r.RegisterLoader(ext, standardLoader)
	}

	thumbnailLoader := NewExifThumbnailLoader()
	r.RegisterLoader(".jpg", thumbnailLoader)
	r.RegisterLoader(".jpeg", thumbnailLoader)
}

// registerHeicLoaders registers the embedded-preview loader for HEIC/HEIF
func (r *ImageLoaderRegistry) registerHeicLoaders() {
	heicLoader := NewExifPreviewLoader()
	r.RegisterLoader(".heic", heicLoader)
	r.RegisterLoader(".heif", heicLoader)
}

// RegisterLoader appends a loader to the chain of an extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.loaders[ext] = append(r.loaders[ext], loader)
}

// RegisterFallback adds a loader tried after the extension chain fails
func (r *ImageLoaderRegistry) RegisterFallback(loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.fallbacks = append(r.fallbacks, loader)
}

// LoadImage decodes path with the first loader that succeeds
func (r *ImageLoaderRegistry) LoadImage(path string) (image.Image, error) {
	r.mutex.RLock()
	ext := strings.ToLower(filepath.Ext(path))
	candidates := make([]ImageLoader, 0, len(r.loaders[ext])+len(r.fallbacks))
	candidates = append(candidates, r.loaders[ext]...)
	candidates = append(candidates, r.fallbacks...)
	r.mutex.RUnlock()

	var errs []error
	for _, loader := range candidates {
		if !loader.CanLoad(path) {
			continue
		}
		img, err := safeLoad(loader, path)
		if err == nil {
			return img, nil
		}
		logging.DebugLog("Loader %T failed for %s: %v", loader, path, err)
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("no suitable loader found for: %s", path)
	}
	return nil, errors.Join(errs...)
}

// safeLoad turns decoder panics on malformed files into errors
func safeLoad(loader ImageLoader, path string) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Panic during image loading: %v, file: %s\nStack trace: %s", r, path, string(debug.Stack()))
			img = nil
			err = fmt.Errorf("panic during image loading: %v", r)
		}
	}()

	img, err = loader.LoadImage(path)
	if err == nil && img == nil {
		err = fmt.Errorf("loader returned no image for %s", path)
	}
	return img, err
}
