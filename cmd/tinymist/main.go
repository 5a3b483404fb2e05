package main

import (
	"log"

	"github.com/hongjr03/tinymist/internal/cli"

	_ "github.com/tliron/commonlog/simple"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

func main() {
	if err := cli.NewRootCommand(Version).Execute(); err != nil {
		log.Fatalf("tinymist: %v", err)
	}
}
