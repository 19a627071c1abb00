package main

import (
	"os"
	"path/filepath"

	"github.com/barlumicheal/DualBootPatcher"
	"github.com/barlumicheal/DualBootPatcher/ramdisk"
	"github.com/spf13/cobra"
)

var unpackDecompress bool

func newUnpackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpack <image> <outdir>",
		Short: "Extract a boot image's payloads into separate files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnpack(args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&unpackDecompress, "decompress", true, "decompress the ramdisk if it is gzip-compressed")
	return cmd
}

func runUnpack(inputPath, outDir string) error {
	img := bootimg.New()
	if err := img.LoadFile(inputPath); err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	rd := img.RamdiskImage()
	if unpackDecompress && len(rd) > 0 {
		if c := ramdisk.Detect(rd); c == ramdisk.Gzip {
			if extracted, err := ramdisk.Extract(rd, c); err == nil {
				rd = extracted
			}
		}
	}

	payloads := map[string][]byte{
		"kernel":     img.KernelImage(),
		"ramdisk":    rd,
		"second":     img.SecondBootloaderImage(),
		"dt":         img.DeviceTreeImage(),
		"ipl":        img.IplImage(),
		"rpm":        img.RpmImage(),
		"appsbl":     img.AppsblImage(),
		"sin-header": img.SinHeader(),
		"sin":        img.SinImage(),
	}
	for name, data := range payloads {
		if len(data) == 0 {
			continue
		}
		if err := os.WriteFile(filepath.Join(outDir, name), data, 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(outDir, "cmdline"), []byte(img.Cmdline()), 0o644)
}
