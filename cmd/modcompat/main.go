package main

import (
	"github.com/anchore/modcompat/cmd"
)

func main() {
	cmd.Execute()
}
