package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/open-cli-collective/discourse-markdown/internal/cmd/root"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("dmd: ")
	// Commands report render warnings themselves; DMD_DEBUG keeps the
	// library log as well.
	if os.Getenv("DMD_DEBUG") == "" {
		log.SetOutput(io.Discard)
	}

	cmd := root.NewCmdRoot()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
