package main

import "github.com/tranvictor/bnames/cmd"

func main() {
	cmd.Execute()
}
