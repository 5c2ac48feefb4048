package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/tarkovsync/internal/cli"
	"github.com/dmitrijs2005/tarkovsync/internal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	opts, err := cli.ParseVerifyOptions(cfg, os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	if !opts.HasAction() {
		cli.VerifyUsage(os.Stdout)
		return
	}

	app := cli.NewVerifyApp(cfg)
	if err := app.Run(ctx, opts); err != nil {
		log.Fatalf("%v", err)
	}

}
