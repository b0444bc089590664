// Command etpl compiles and renders embedded-code templates.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/etpl/cli"
	"github.com/ardnew/etpl/log"
)

func main() {
	if err := cli.Run(context.Background(), os.Exit, os.Args[1:]...); err != nil {
		log.Error("etpl failed", slog.Any("error", err))
		os.Exit(1)
	}
}
