package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shoplist/internal/buildinfo"
	"shoplist/internal/client/cli"
	"shoplist/internal/client/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close(ctx)

	app.Run(ctx)
}
