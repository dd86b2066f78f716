package main

import "py2pyd/internal/cli"

func main() {
	cli.Execute()
}
