// Command bootimg inspects, unpacks, repacks, and converts Android-style
// boot images across the Android, Loki, Bump, and Sony ELF32 variants.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var verbose bool

func main() {
	root := &cobra.Command{
		Use:     "bootimg",
		Short:   "Inspect and repack Android-style boot images",
		Version: version,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cobra.OnInitialize(func() {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	})

	root.AddCommand(newInfoCmd())
	root.AddCommand(newUnpackCmd())
	root.AddCommand(newRepackCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newPatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
