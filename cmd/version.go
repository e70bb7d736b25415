package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"imagecluster/imageprocessor"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("imagecluster version %s\n", version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Printf("Hash algorithms: %v\n", imageprocessor.HasherNames())
		fmt.Printf("Image formats: %s\n", strings.Join(imageprocessor.GetSupportedExtensions(), " "))
	},
}
