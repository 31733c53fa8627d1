package main

import (
	"log"

	"github.com/inframind/build-advisor/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		log.Fatal(err)
	}
}
