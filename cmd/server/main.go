package main

import (
	"context"
	"log"

	"github.com/codevault/codevault/internal/config"
	"github.com/codevault/codevault/internal/server"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
