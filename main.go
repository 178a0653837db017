package main

import "Playdeck/cmd"

func main() {
	cmd.Execute()
}
