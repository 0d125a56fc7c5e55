package main

import "github.com/eliasmeireles/secretctl/cmd/secretctl/cmd"

func main() {
	cmd.Execute()
}
