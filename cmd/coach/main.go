package main

import "github.com/diogo/tacticscoach/internal/commands"

func main() {
	commands.Execute()
}
