package main

import (
	"log"

	"github.com/myxo/remu/bot"
	"github.com/myxo/remu/core/cmd"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        bot.LoadConfig,
		Bootstrap:         bot.Bootstrap,
	})
	if err != nil {
		log.Fatalf("remu: %v", err)
	}
}
