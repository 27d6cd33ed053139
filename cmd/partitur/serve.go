package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vsariola/partitur/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP diagnostic service",
	Long:  `Serves POST /scores for uploading documents and GET /scores/{id}/check, /summary and /listing for checking them. Documents are kept in memory or in DynamoDB, as configured.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var store server.Store
		switch cfg.Server.Store {
		case "", "memory":
			store = server.NewMemoryStore()
		case "dynamodb":
			d, err := server.NewDynamoStore(cfg.Server.Region, cfg.Server.Table, cfg.Server.Endpoint)
			if err != nil {
				return fmt.Errorf("could not create a DynamoDB session: %v", err)
			}
			store = d
		default:
			return fmt.Errorf("unknown store %q", cfg.Server.Store)
		}
		opts := cfg.ReadOptions()
		opts.Logger = logger
		srv, err := server.New(store, opts, cfg.Server.AllowedOrigins, log.New(os.Stderr, "", log.LstdFlags))
		if err != nil {
			return err
		}
		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}
