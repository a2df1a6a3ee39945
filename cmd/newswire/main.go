package main

import (
	"newswire/cmd/cmd"
	"newswire/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
