package main

import "github.com/nodeflip/nodeflip/cmd"

func main() {
	cmd.Execute()
}
