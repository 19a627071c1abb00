package main

import (
	"github.com/barlumicheal/DualBootPatcher"
	"github.com/spf13/cobra"
)

var convertType string

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Load a boot image and re-serialize it as a different variant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&convertType, "type", "android", "target format: android, loki, bump, or sonyelf")
	return cmd
}

func runConvert(inputPath, outputPath string) error {
	t, err := parseImageType(convertType)
	if err != nil {
		return err
	}

	img := bootimg.New()
	if err := img.LoadFile(inputPath); err != nil {
		return err
	}
	img.SetType(t)
	return img.CreateFile(outputPath)
}
