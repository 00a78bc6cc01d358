package main

import (
	"github.com/geoscout/geoscout/cmd"
)

func main() {
	cmd.Execute()
}
