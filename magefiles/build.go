//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles every package.
func (Build) All() error {
	if _, err := executeCmd("go", withArgs("build", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the archive inspection tool into bin/, stamping the engine commit hash.
func (Build) Inspect() error {
	hash, err := executeCmd("git", withArgs("rev-parse", "HEAD"))
	if err != nil {
		hash = ""
	}
	ldflags := fmt.Sprintf("-X github.com/spaghettifunk/anima/engine/core.BuildCommitHash=%s", trimNewline(hash))
	if _, err := executeCmd("go", withArgs("build", "-ldflags", ldflags, "-o", "bin/anima-inspect", "."), withStream()); err != nil {
		return err
	}
	return nil
}
