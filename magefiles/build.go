//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the ignis binary into ./bin.
func (Build) Engine() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/ignis", "."), withStream()); err != nil {
		return err
	}
	return nil
}
