package main

import "toonreel/cmd"

func main() {
	cmd.Execute()
}
