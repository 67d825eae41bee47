// Package main is the entry point for the DevLink client gateway.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "devlink-gateway",
	Short: "DevLink client gateway",
	Long: "Headless companion process for the DevLink marketplace shell.\n" +
		"Owns client-side state (conversations, offers, orders, payment handoff)\n" +
		"and exposes it to the browser over a local HTTP API.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gateway version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default ~/.devlink/config.toml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
