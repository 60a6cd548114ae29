package main

import "github.com/suteetoe/jobboard/internal/cli"

func main() {
	cli.Execute()
}
