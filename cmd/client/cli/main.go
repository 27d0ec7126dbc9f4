package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/spendtrack/internal/client/cli"
	"github.com/dmitrijs2005/spendtrack/internal/client/config"
)

func main() {

	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.Run(ctx)

}
