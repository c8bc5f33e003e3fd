package main

import (
	"github.com/turtacn/paytrust/cmd/cli"
)

// main is the entry point for the paytrust-admin command-line tool.
// main 是 paytrust-admin 命令行工具的入口点。
func main() {
	cli.Execute()
}
