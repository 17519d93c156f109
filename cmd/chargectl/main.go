package main

import "github.com/mcoot/chargedblocks/internal/cli"

func main() {
	cli.Execute()
}
