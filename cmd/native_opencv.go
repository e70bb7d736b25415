//go:build !noopencv

package cmd

import (
	"imagecluster/imageprocessor"
	"imagecluster/imageprocessor/opencv"
)

// registerNativeLoaders adds the OpenCV decoder as the last fallback
func registerNativeLoaders(registry *imageprocessor.ImageLoaderRegistry) {
	opencv.Register(registry)
}
