package main

import "raglayer/cmd"

func main() {
	cmd.Execute()
}
