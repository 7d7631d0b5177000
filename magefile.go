//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var Default = Build

// Build compiles the extbuild binary into bin/.
func Build() error {
	mg.Deps(Vet)
	return sh.RunV("go", "build", "-o", "bin/extbuild", "./cmd/extbuild")
}

func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests. Set NATIVEEXT_SHORT=1 to skip the tests that
// need a real C compiler.
func Test() error {
	args := []string{"test", "./..."}
	if os.Getenv("NATIVEEXT_SHORT") != "" {
		args = append(args, "-short")
	}
	return sh.RunV("go", args...)
}

// Tawny builds the sample extension under testdata with the local binary.
func Tawny() error {
	mg.Deps(Build)
	return sh.RunV("bin/extbuild", "build", "--force", "testdata/tawny")
}

func Clean() error {
	return sh.Rm("bin")
}
