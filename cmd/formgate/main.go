package main

import "github.com/openfield/formgate/internal/cli"

func main() {
	cli.Execute()
}
