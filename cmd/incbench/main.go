package main

import (
	"github.com/team-atlanta/incbench/internal/cmd/root"
)

func main() {
	root.Execute()
}
