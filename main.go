package main

import (
	"github.com/joho/godotenv"

	"github.com/firetalk/switchboard/cmd"
)

func main() {
	// Local development keeps its credentials in a .env file. A missing
	// file is fine, production passes real environment variables.
	_ = godotenv.Load()

	cmd.Execute()
}
