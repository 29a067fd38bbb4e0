package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/sharevault/internal/client/cli"
	"github.com/dmitrijs2005/sharevault/internal/client/config"
	"github.com/dmitrijs2005/sharevault/internal/flagx"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, closeFn, err := cli.NewApp(ctx, cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = app.Run(ctx, flagx.StripArgs(os.Args[1:], config.Flags))
	if cerr := closeFn(); cerr != nil {
		log.Printf("close: %v", cerr)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

}
