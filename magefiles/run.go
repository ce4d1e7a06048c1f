//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the engine. Set IGNIS_CONFIG to pass a config file.
func (Run) Engine() error {
	mg.Deps(Build.Engine)

	args := []string{}
	if path := os.Getenv("IGNIS_CONFIG"); path != "" {
		args = append(args, "-config", path)
	}
	fmt.Println("Run engine...")
	if _, err := executeCmd("bin/ignis", withArgs(args...), withStream()); err != nil {
		return err
	}
	return nil
}
