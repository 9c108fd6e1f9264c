//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the unit tests with the race detector.
func (Test) All() error {
	mg.Deps(Build.All)
	if _, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the archive and binding resolver tests only.
func (Test) Archive() error {
	if _, err := executeCmd("go", withArgs("test", "-race", "./engine/archive/...", "./engine/renderer/..."), withStream()); err != nil {
		return err
	}
	return nil
}
