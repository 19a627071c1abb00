package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/tgulacsi/go/wrap"
)

const (
	cliWelcome = `
Please drag and drop the boot image you want to patch
into this window.

After you drop the file, press the [Enter] key to continue.

> `
	cliStatError = `
An error occurred verifying that file:
"%s"

Try dragging and dropping a boot image you are able
to open.

> `
)

func interactiveTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func cliPrompt(msg string) {
	fmt.Printf("\n%s\n\n> ", wrap.String(msg, 60))
}

func cliPromptDrag(msg string) {
	cliPrompt(msg + " Try dragging and dropping a boot image here.")
}

// cliGetInputPath interactively prompts for an input path when none was
// given on the command line and stdout is a real terminal.
func cliGetInputPath() string {
	fmt.Print(cliWelcome)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		if !scanner.Scan() {
			fmt.Println()
			os.Exit(2)
		}

		path := strings.TrimSpace(scanner.Text())
		if (strings.HasPrefix(path, "\"") && strings.HasSuffix(path, "\"")) ||
			(strings.HasPrefix(path, "'") && strings.HasSuffix(path, "'")) {
			path = path[1 : len(path)-1]
		}

		if len(path) == 0 {
			cliPromptDrag("That wasn't the path to a file.")
			continue
		}

		fInfo, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				cliPromptDrag("That file doesn't exist.")
			} else {
				fmt.Printf(cliStatError, err.Error())
			}
			continue
		}
		if fInfo.IsDir() {
			cliPromptDrag("That's a folder, not a file.")
			continue
		}

		fmt.Println()
		return path
	}
}
