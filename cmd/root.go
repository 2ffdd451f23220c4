// Package cmd holds the toonreel command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "toonreel",
	Short: "Turns a random cartoon character into a short vertical video, and runs a Telegram chatbot",
	Long: `toonreel finds a picture of a well-known cartoon character, generates a
9:16 image from it, animates that image on a hosted video model and delivers
the clip to Telegram and/or a webhook. The chat command runs an independent
Telegram chatbot backed by a hosted LLM.

Configuration comes from the environment or a .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits with status 1 on any error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
