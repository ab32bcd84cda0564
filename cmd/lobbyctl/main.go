package main

import (
	"github.com/tavisham/lobbygate/internal/cli"
)

func main() {
	cli.Execute()
}
