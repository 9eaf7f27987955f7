package main

import "orgsite-client/cmd/orgsite/commands"

func main() {
	commands.Execute()
}
