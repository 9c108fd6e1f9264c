//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Inspects the archive named in anima.toml.
func (Run) Inspect() error {
	fmt.Println("Run inspector...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "anima.toml"), withStream()); err != nil {
		return err
	}
	return nil
}
