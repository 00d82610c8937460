package main

import (
	"context"
	"os"

	"TradeSuite/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
