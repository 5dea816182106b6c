package main

import "RaspCD/cmd"

func main() {
	cmd.Execute()
}
