// vjctl is the command-line companion to the voicejournal server: record
// a voice note from the terminal, submit audio files, and browse entries.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	serverURL string
	authToken string
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:           "vjctl",
	Short:         "Voice journal client",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server base URL (default $VOICEJOURNAL_URL or http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "bearer token (default $VOICEJOURNAL_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(queueCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
