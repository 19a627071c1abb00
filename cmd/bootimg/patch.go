package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/barlumicheal/DualBootPatcher"
	"github.com/barlumicheal/DualBootPatcher/ramdisk"
	"github.com/spf13/cobra"
)

var patchRevert bool

func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch [input] [output]",
		Short: "Patch a TWRP boot image's ramdisk to preserve /data/media backups",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(args)
		},
	}
	cmd.Flags().BoolVarP(&patchRevert, "revert", "r", false, "revert a previously patched image")
	return cmd
}

func runPatch(args []string) error {
	var inputPath, outputPath string
	interactive := interactiveTerminal()
	interactivePath := false

	if len(args) > 0 {
		inputPath = args[0]
	} else if interactive {
		defer func() {
			fmt.Print("\n\nPress any key to continue...")
			bufio.NewReader(os.Stdin).ReadRune()
		}()
		inputPath = cliGetInputPath()
		interactivePath = true
	} else {
		return fmt.Errorf("an input path is required")
	}

	if len(args) > 1 {
		outputPath = args[1]
	} else {
		ext := filepath.Ext(inputPath)
		base := filepath.Base(inputPath)
		dir := filepath.Dir(inputPath)
		outputPath = filepath.Join(dir, strings.TrimSuffix(base, ext)+"-patched"+ext)
	}

	if !interactivePath {
		if fInfo, err := os.Stat(inputPath); err != nil {
			return err
		} else if fInfo.IsDir() {
			return fmt.Errorf("input %q is a directory, not a boot image", inputPath)
		}
	}

	fmt.Println(" - Extracting image")
	img := bootimg.New()
	if err := img.LoadFile(inputPath); err != nil {
		return err
	}

	fmt.Println(" - Extracting ramdisk")
	c := ramdisk.Detect(img.RamdiskImage())
	plain, err := ramdisk.Extract(img.RamdiskImage(), c)
	if err != nil {
		return err
	}

	fmt.Println(" - Patching ramdisk")
	patched, err := ramdisk.PatchTwrpStorage(plain, patchRevert)
	if err != nil {
		return err
	}

	fmt.Println(" - Compressing ramdisk")
	compressed, err := ramdisk.Compress(patched, c)
	if err != nil {
		return err
	}
	img.SetRamdiskImage(compressed)

	fmt.Println(" - Repacking & writing image")
	if err := img.CreateFile(outputPath); err != nil {
		return err
	}

	fmt.Printf(" - Finished! Output is %q.\n", outputPath)
	return nil
}
