package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/openrag/ragserver/internal/docexport"
)

func main() {
	docexport.NewApp().Run()
}
