package main

import (
	"context"
	"log"
	"os"

	"github.com/codevault/codevault/internal/cli"
	"github.com/codevault/codevault/internal/config"
)

func main() {

	if len(os.Args) > 1 && os.Args[1] == "hash" {
		if err := cli.PrintHash(os.Stdout); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
