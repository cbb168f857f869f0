package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/lehigh-university-libraries/pdf-renamer/cmd"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
)

const version = "2.1.0"

func main() {
	root := cmd.NewRootCmd()

	// fang cancels the command context on interrupt, which stops the run between files
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		if models.IsConfiguration(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
