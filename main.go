package main

import (
	"log"

	"github.com/Jesteban247/Med-vision-detect/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("Command failed: %v", err)
	}
}
