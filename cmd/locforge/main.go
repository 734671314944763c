package main

import "locforge/internal/cli"

func main() {
	cli.Execute()
}
