package main

import (
	"fmt"

	"github.com/barlumicheal/DualBootPatcher"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <image>",
		Short: "Print the detected format and header fields of a boot image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img := bootimg.New()
			if err := img.LoadFile(args[0]); err != nil {
				return err
			}

			fmt.Printf("format:        %s\n", img.WasType())
			fmt.Printf("board:         %q\n", img.BoardName())
			fmt.Printf("cmdline:       %q\n", img.Cmdline())
			fmt.Printf("page size:     %d\n", img.PageSize())
			fmt.Printf("kernel:        %d bytes @ 0x%08x\n", img.KernelSize(), img.KernelAddress())
			fmt.Printf("ramdisk:       %d bytes @ 0x%08x\n", img.RamdiskSize(), img.RamdiskAddress())
			fmt.Printf("second stage:  %d bytes @ 0x%08x\n", img.SecondBootloaderSize(), img.SecondBootloaderAddress())
			fmt.Printf("device tree:   %d bytes\n", img.DeviceTreeSize())
			fmt.Printf("tags addr:     0x%08x\n", img.KernelTagsAddress())
			fmt.Printf("id:            %x\n", img.Digest20())
			return nil
		},
	}
}
