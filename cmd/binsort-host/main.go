package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/binsort-io/binsort/cmd/binsort-host/app"
)

func main() {
	app.NewApp().Run()
}
