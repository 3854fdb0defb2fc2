/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package main

import (
	"os"

	"github.com/allbin/serialcap/cmd"
	"github.com/allbin/serialcap/internal/capture"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(capture.ExitCode(err))
	}
}
