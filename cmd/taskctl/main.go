// Package main implements taskctl, a command-line client for the taskboard API.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"taskboard/pkg/client"
	"taskboard/pkg/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var serverURL string

var rootCmd = &cobra.Command{
	Use:           "taskctl",
	Short:         "Manage tasks and notes on a taskboard server",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", config.GetEnv("TASKBOARD_URL", "http://localhost:8080"), "taskboard API base URL")
}

func newClient() *client.Client {
	return client.New(serverURL)
}
