package main

import "github.com/riskibarqy/fixture-scout/internal/cli"

func main() {
	cli.Execute()
}
