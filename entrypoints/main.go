package main

import (
	"github.com/Laisky/laisky-newsroom/cmd"
)

func main() {
	cmd.Execute()
}
