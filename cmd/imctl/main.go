package main

import (
	"github.com/inframind/build-advisor/pkg/cli"
)

func main() {
	cli.Execute()
}
