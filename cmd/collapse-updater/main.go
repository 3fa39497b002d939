package main

import (
	"github.com/CollapseLoader/CollapseUpdater/pkg/cmd"
)

func main() {
	cmd.Execute()
}
