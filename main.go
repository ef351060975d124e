package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/siegeai/schemagen/commands"
)

func main() {
	_ = godotenv.Load()
	os.Exit(commands.Execute())
}
