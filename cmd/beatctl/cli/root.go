// Package cli holds the beatctl commands.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sixtrece/beats-server/internal/client"
)

// VersionInfo is stamped at build time.
type VersionInfo struct {
	Version string
	Commit  string
}

// NewRootCommand creates the beatctl root command with its persistent flags.
func NewRootCommand(info VersionInfo) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:           "beatctl",
		Short:         "Beats catalog client",
		Long:          "Browse the beats catalog, like beats, push the click counter and play a catalog page in the terminal.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(path)
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (default is ./beatctl.yaml)")
	cmd.PersistentFlags().String("server", "http://localhost:5000", "beats server URL")
	cmd.PersistentFlags().Duration("timeout", 10*time.Second, "request timeout")

	_ = viper.BindPFlag("server", cmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("timeout", cmd.PersistentFlags().Lookup("timeout"))

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}

func newClient() (*client.Client, error) {
	return client.New(viper.GetString("server"))
}

// requestContext bounds a single command's API calls.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout := viper.GetDuration("timeout")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(cmd.Context(), timeout)
}
