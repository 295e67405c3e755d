package main

import "github.com/forPelevin/topicut/internal/cli"

func main() {
	cli.Main()
}
