//go:build noopencv

package cmd

import "imagecluster/imageprocessor"

// registerNativeLoaders is a no-op in builds without OpenCV. The cv-dct hash
// is not available there either.
func registerNativeLoaders(registry *imageprocessor.ImageLoaderRegistry) {}
