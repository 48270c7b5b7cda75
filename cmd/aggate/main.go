package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luminal-ai/agui-gateway/config"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "aggate",
		Short: "aggate - real-time AG-UI chat gateway",
		Long: `aggate bridges browser chat clients and the agent backend over
the AG-UI WebSocket protocol: authentication, guest quotas, and
streaming turn framing.`,
	}

	rootCmd.AddCommand(
		serveCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			fmt.Println("Server:")
			fmt.Printf("  Host:               %s\n", cfg.Server.Host)
			fmt.Printf("  Port:               %d\n", cfg.Server.Port)
			fmt.Printf("  Allowed Origins:    %v\n", cfg.Server.AllowedOrigins)
			fmt.Printf("  Allow Empty Origin: %v\n", cfg.Server.AllowEmptyOrigin)
			fmt.Println()

			fmt.Println("Auth:")
			fmt.Printf("  JWT Secret:       %s\n", maskSecret(cfg.Auth.JWTSecret))
			fmt.Printf("  Password Enabled: %v\n", cfg.Auth.PasswordEnabled)
			fmt.Printf("  Password:         %s\n", maskSecret(cfg.Auth.Password))
			fmt.Printf("  Password TTL:     %s\n", cfg.Auth.PasswordTTL)
			fmt.Println()

			fmt.Println("Guest:")
			fmt.Printf("  Message Limit: %d\n", cfg.Guest.MessageLimit)
			fmt.Printf("  Token TTL:     %s\n", cfg.Guest.TokenTTL)
			fmt.Println()

			fmt.Println("Backends:")
			fmt.Printf("  Redis URL:     %s\n", maskSecret(cfg.Redis.URL))
			fmt.Printf("  Postgres URL:  %s\n", maskSecret(cfg.Database.URL))
			fmt.Printf("  Agent URL:     %s\n", cfg.Agent.URL)
			fmt.Printf("  Agent Timeout: %s\n", cfg.Agent.Timeout)

			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("aggate %s\n", version)
		},
	}
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}
