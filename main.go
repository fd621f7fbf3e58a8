package main

import "github.com/sumwave/otodl/cmd"

func main() {
	cmd.Execute()
}
