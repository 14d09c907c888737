// add-user registers a personal access token for a user in users.csv.
//
// Usage: go run ./scripts/add-user [-data-dir DIR] [-token PAT] <email>
//
// The data root defaults to the one food-agent would use: FOOD_AGENT_DATA or
// data_dir from config.yaml, then settings.json, then the XDG data directory.
// When -token is omitted a random token is generated and printed.
//
// Flags:
//
//	-data-dir  Data root holding users.csv (default: resolved from config)
//	-token     Token to register (default: generated)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/config"
	"github.com/ekaya-inc/food-agent/pkg/logging"
	"github.com/ekaya-inc/food-agent/pkg/repositories"
	"github.com/ekaya-inc/food-agent/pkg/services"
	"github.com/ekaya-inc/food-agent/pkg/storage"
)

func main() {
	dataDir := flag.String("data-dir", "", "Data root holding users.csv (default: resolved from config)")
	token := flag.String("token", "", "Token to register (default: generated)")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-data-dir DIR] [-token PAT] <email>\n", os.Args[0])
		os.Exit(1)
	}

	root := *dataDir
	if root == "" {
		cfg, err := config.Load("script")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		root = cfg.DataDir
	} else {
		expanded, err := config.ExpandPath(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid data dir: %v\n", err)
			os.Exit(1)
		}
		root = expanded
	}

	logger, err := logging.NewLogger("production", "warn")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	layout := storage.NewLayout(root)
	users := services.NewUserService(repositories.NewUserRepository(layout, logger), logger)

	user, err := users.Register(context.Background(), args[0], *token)
	if err != nil {
		logger.Error("Failed to register user", zap.String("email", args[0]), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to register user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Registered %s in %s\n", user.Email, layout.UsersPath())
	fmt.Printf("Token: %s\n", user.Token)
}
