package main

import (
	"github.com/gilbus/genuprimer/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
