//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

func Build() error {
	mg.Deps(BuildRisetime)
	fmt.Println("Compilation finished")
	return nil
}

// BuildRisetime builds the risetime command. The HDF5 export needs cgo.
func BuildRisetime() error {
	fmt.Println("Building risetime executable...")
	return goCmd("build", "-o", "./bin/risetime", "./risetime").Run()
}

// Test runs the unit tests of the library and the command.
func Test() error {
	fmt.Println("Running tests...")
	return goCmd("test", "./...").Run()
}

func goCmd(args ...string) *exec.Cmd {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}
