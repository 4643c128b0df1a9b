package main

import "creator-trends/internal/cli"

func main() {
	cli.Execute()
}
