package main

import (
	"github.com/axellelanca/linkforge/cmd"
	_ "github.com/axellelanca/linkforge/cmd/cli"
	_ "github.com/axellelanca/linkforge/cmd/server"
)

func main() {
	cmd.Execute()
}
