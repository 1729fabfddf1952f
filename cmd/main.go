package main

import (
	"github.com/metric-agent/cmd/agent"
)

func main() {
	agent.Execute()
}
