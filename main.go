package main

import "github.com/dotcommander/lintcompose/cmd"

func main() {
	cmd.Execute()
}
