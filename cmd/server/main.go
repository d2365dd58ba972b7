package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/here/internal/buildinfo"
	"github.com/dmitrijs2005/here/internal/server"
	"github.com/dmitrijs2005/here/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg, buildinfo.Version(), os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
