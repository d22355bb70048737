// Package main is the entry point for the h2y CLI tool.
package main

import (
	"github.com/hargabyte/h2y/internal/cmd"
)

func main() {
	cmd.Execute()
}
