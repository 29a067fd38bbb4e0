// Command admin provisions a user in the ShareVault database and prints an
// access token for it. It reads the same config file and flags as the server.
//
//	admin -U alice -d postgres://...
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/sharevault/internal/flagx"
	"github.com/dmitrijs2005/sharevault/internal/server/config"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sharevault/internal/server/users"
)

func parseUsername(args []string) string {
	var username string
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&username, "U", "", "user name to provision")
	_ = fs.Parse(flagx.FilterArgs(args, []string{"-U"}))
	return username
}

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	username := parseUsername(os.Args[1:])
	if username == "" {
		log.Fatal("usage: admin -U <username> [server flags]")
	}

	if cfg.DatabaseDSN == "" {
		log.Fatal("a database DSN is required; in-memory users do not outlive this process")
	}

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager(db)
	if err := rm.RunMigrations(ctx); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	token, user, err := users.NewService(rm, cfg).IssueToken(ctx, username)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "user %s (%s)\n", user.UserName, user.ID)
	fmt.Println(token)
}
