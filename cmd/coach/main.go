// Package main is a terminal client for the coaching API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/capitalize-ai/leadership-coach/internal/client"
)

var (
	apiURL   string
	apiToken string
)

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "Talk to the leadership coach from a terminal",
}

func init() {
	_ = godotenv.Load()

	defaultURL := os.Getenv("COACH_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "API base URL (env COACH_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("COACH_TOKEN"), "bearer token (env COACH_TOKEN)")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newConversationsCmd())
}

func newClient() *client.Client {
	return client.New(apiURL, client.WithToken(apiToken))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
