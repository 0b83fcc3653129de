package main

import "github.com/iksnae/agent-peek/cmd"

func main() {
	cmd.Execute()
}
