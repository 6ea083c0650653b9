package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firetalk/switchboard/pkg/cmd/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the signaling server instance",
	Run:   server.RunServeSignaling(c),
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
