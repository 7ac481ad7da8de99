package main

import "formassist-backend/internal/cli"

func main() {
	cli.Execute()
}
