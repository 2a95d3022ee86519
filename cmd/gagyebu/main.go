package main

import "gagyebu/internal/cli"

func main() {
	cli.Execute()
}
