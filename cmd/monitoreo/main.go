package main

import (
	"os"

	"github.com/juliananz/monitoreo-medios/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
