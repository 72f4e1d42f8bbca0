package main

import (
	"context"
	"log"
	"os"

	"github.com/adiwinata/fittrack/internal/buildinfo"
	"github.com/adiwinata/fittrack/internal/client/cli"
	"github.com/adiwinata/fittrack/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
