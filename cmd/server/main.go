package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/sharevault/internal/server"
	"github.com/dmitrijs2005/sharevault/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg, os.Stdout)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
