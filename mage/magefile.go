//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

const (
	BINARY_NAME = "../bin/draw-server"
	MAIN_PATH   = "../cmd/server/main.go"
)

func Build() error {
	fmt.Println("🔨 Building server binary...")
	return runCmd("go", "build", "-o", BINARY_NAME, MAIN_PATH)
}

func Run() error {
	mg.Deps(Build)
	fmt.Println("🚀 Starting drawing server...")
	return runCmd(BINARY_NAME)
}

func Test() error {
	fmt.Println("🧪 Running tests...")
	return runCmd("go", "test", "../...")
}

func Tidy() error {
	fmt.Println("📦 Tidying modules...")
	return runCmd("go", "mod", "tidy")
}

func Clean() {
	fmt.Println("🧹 Cleaning up...")
	os.Remove(BINARY_NAME)
}

func runCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
