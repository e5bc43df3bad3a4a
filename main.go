package main

import "github.com/Grego-GT/spielberg/cmd"

func main() {
	cmd.Execute()
}
