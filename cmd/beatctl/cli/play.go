package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sixtrece/beats-server/cmd/beatctl/tui"
	"github.com/sixtrece/beats-server/internal/client"
	"github.com/sixtrece/beats-server/internal/playback"
)

// NewPlayCommand loads a catalog page into a playback session and opens the
// terminal player. Audio output is simulated.
func NewPlayCommand() *cobra.Command {
	var (
		params client.ListParams
		start  int
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a catalog page in the terminal",
		Long:  "Load one page of the catalog as a playlist and drive it from a terminal player with a simulated audio transport.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd)
			page, err := c.ListItems(ctx, params)
			cancel()
			if err != nil {
				return err
			}
			if len(page.Items) == 0 {
				return errors.New("no items match")
			}

			tracks := playback.TracksFromItems(page.Items)
			for i := range tracks {
				tracks[i].AudioRef = c.AssetURL(tracks[i].AudioRef)
				tracks[i].CoverRef = c.AssetURL(tracks[i].CoverRef)
			}

			return runPlayer(cmd.Context(), tracks, start-1)
		},
	}

	cmd.Flags().StringVarP(&params.Search, "search", "q", "", "search title or artist")
	cmd.Flags().StringVarP(&params.Genre, "genre", "g", "", "exact genre")
	cmd.Flags().IntVarP(&params.Page, "page", "p", 0, "page number (server default 1)")
	cmd.Flags().IntVarP(&params.Limit, "limit", "n", 0, "items per page (server default)")
	cmd.Flags().IntVarP(&start, "start", "s", 1, "1-based position of the first track to play")

	return cmd
}

func runPlayer(ctx context.Context, tracks []playback.Track, startIndex int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	transport := playback.NewSimulatedTransport(playback.DurationsFromTracks(tracks))
	session := playback.NewSession(transport, transport,
		playback.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	transport.Attach(session)
	defer session.Close()

	go transport.Run(ctx)

	session.LoadPlaylist(tracks, startIndex)

	if err := tui.Run(session); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	return nil
}
