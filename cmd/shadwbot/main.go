package main

import (
	"log"

	"github.com/mehradnfi/shadwbot/core/cmd"
)

func main() {
	if err := cmd.Run(cmd.Options{DefaultConfigPath: "config.yaml"}); err != nil {
		log.Fatalf("shadwbot: %v", err)
	}
}
