package main

import "imsgen/cmd"

func main() {
	cmd.Execute()
}
