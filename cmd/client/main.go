// Command client announces this machine's presence to a here registry.
//
// Usage:
//
//	client [flags]                             keep the presence lease alive
//	client lookup <account> [passwd] [flags]   print an account's presence
package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/here/internal/buildinfo"
	"github.com/dmitrijs2005/here/internal/client"
	"github.com/dmitrijs2005/here/internal/client/config"
)

func main() {

	args := os.Args[1:]

	cfg, err := config.LoadConfig(args, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := client.NewApp(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()

	if len(args) > 0 && args[0] == "lookup" {
		if len(args) < 2 || strings.HasPrefix(args[1], "-") {
			log.Fatalf("usage: client lookup <account> [passwd] [flags]")
		}
		var passwd *string
		if len(args) > 2 && !strings.HasPrefix(args[2], "-") {
			passwd = &args[2]
		}
		if err := app.Lookup(ctx, args[1], passwd, os.Stdout); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	buildinfo.PrintBuildData(os.Stdout)

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
