package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/barlumicheal/DualBootPatcher"
	"github.com/spf13/cobra"
)

var repackType string

func newRepackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repack <indir> <output>",
		Short: "Repack payload files produced by unpack into a boot image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepack(args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&repackType, "type", "android", "target format: android, loki, bump, or sonyelf")
	return cmd
}

func readIfExists(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}

func runRepack(inDir, outputPath string) error {
	t, err := parseImageType(repackType)
	if err != nil {
		return err
	}

	img := bootimg.New()
	img.SetType(t)
	img.SetKernelImage(readIfExists(filepath.Join(inDir, "kernel")))
	img.SetRamdiskImage(readIfExists(filepath.Join(inDir, "ramdisk")))
	img.SetSecondBootloaderImage(readIfExists(filepath.Join(inDir, "second")))
	img.SetDeviceTreeImage(readIfExists(filepath.Join(inDir, "dt")))
	img.SetIplImage(readIfExists(filepath.Join(inDir, "ipl")))
	img.SetRpmImage(readIfExists(filepath.Join(inDir, "rpm")))
	img.SetAppsblImage(readIfExists(filepath.Join(inDir, "appsbl")))
	img.SetSinHeader(readIfExists(filepath.Join(inDir, "sin-header")))
	img.SetSinImage(readIfExists(filepath.Join(inDir, "sin")))
	if cmdline := readIfExists(filepath.Join(inDir, "cmdline")); cmdline != nil {
		img.SetCmdline(string(cmdline))
	}

	return img.CreateFile(outputPath)
}

func parseImageType(s string) (bootimg.ImageType, error) {
	switch s {
	case "android":
		return bootimg.Android, nil
	case "loki":
		return bootimg.Loki, nil
	case "bump":
		return bootimg.Bump, nil
	case "sonyelf":
		return bootimg.SonyElf, nil
	default:
		return 0, fmt.Errorf("unknown target format %q", s)
	}
}
