package main

import (
	"os"

	"github.com/simonjohansson/thoughtflow/internal/thoughtflow"
)

func main() {
	os.Exit(thoughtflow.Run(os.Args[1:], os.Stdout, os.Stderr, os.Environ()))
}
