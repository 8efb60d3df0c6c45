package main

import (
	"os"

	"github.com/iot-for-tillgenglighet/iot-tagdata/cmd/iot-tagdata/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
