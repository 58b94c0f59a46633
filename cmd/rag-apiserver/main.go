package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/openrag/ragserver/internal/apiserver"
)

func main() {
	apiserver.NewApp().Run()
}
