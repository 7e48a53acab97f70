package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	app := &cli.App{
		Name:  "admin-panel",
		Usage: "user administration backend",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run migrations and start the HTTP server",
				Action: serveAction,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrateAction,
			},
			{
				Name:      "create-admin",
				Usage:     "create an admin account or reset its password",
				ArgsUsage: "<username>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "password",
						Usage:   "admin password (prompted without echo when omitted)",
						EnvVars: []string{"ADMIN_PASSWORD"},
					},
				},
				Action: createAdminAction,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}
