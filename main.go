package main

import "github.com/voxagent/voxagent/cmd"

func main() {
	cmd.Execute()
}
