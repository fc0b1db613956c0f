package main

import "github.com/agentcore/orchestrator/cmd"

func main() {
	cmd.Execute()
}
