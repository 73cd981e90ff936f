package main

import "github.com/Dodecahedr0x/amm-tutorial/internal/cli"

func main() {
	cli.Execute()
}
