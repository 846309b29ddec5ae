package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sixtrece/beats-server/internal/domain"
)

const progressBarWidth = 30

// NewProgressCommand shows the click counter.
func NewProgressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show click progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			p, err := c.Progress(ctx)
			if err != nil {
				return err
			}
			printProgress(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

// NewClickCommand pushes the click counter.
func NewClickCommand() *cobra.Command {
	var times int

	cmd := &cobra.Command{
		Use:   "click",
		Short: "Record clicks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if times < 1 {
				return errors.New("--times must be at least 1")
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var p *domain.Progress
			for range times {
				if p, err = c.Click(ctx); err != nil {
					return err
				}
			}
			printProgress(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().IntVarP(&times, "times", "t", 1, "number of clicks")

	return cmd
}

func printProgress(w io.Writer, p *domain.Progress) {
	filled := int(p.Percent() / 100 * progressBarWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)

	status := ""
	if p.IsCompleted {
		status = headerStyle.Render(" unlocked")
	}
	fmt.Fprintf(w, "%s %s / %s (%.0f%%)%s\n",
		bar, humanize.Comma(p.CurrentClicks), humanize.Comma(p.TargetClicks), p.Percent(), status)
}
