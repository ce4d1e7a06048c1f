//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the package tests that need neither a window nor a GPU.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "./engine/core/...", "./engine/renderer/", "./engine/renderer/rendertest/...", "./engine/"), withStream())
	return err
}

// Same as Unit with the race detector on.
func (Test) Race() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./engine/core/...", "./engine/renderer/", "./engine/"), withStream())
	return err
}

// Runs every test, including the Vulkan backend helpers (needs cgo and the Vulkan headers).
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}
