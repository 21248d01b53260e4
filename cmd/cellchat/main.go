// Command cellchat chats with a completion model that answers in layout cells.
package main

import "github.com/diogo/cellchat/internal/commands"

func main() {
	commands.Execute()
}
