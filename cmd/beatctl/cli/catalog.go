package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sixtrece/beats-server/internal/client"
	"github.com/sixtrece/beats-server/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// NewItemsCommand lists one page of the catalog.
func NewItemsCommand() *cobra.Command {
	var params client.ListParams

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List catalog items",
		Long:  "List one page of catalog items, optionally filtered by a search term and a genre.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			page, err := c.ListItems(ctx, params)
			if err != nil {
				return err
			}
			printItems(cmd.OutOrStdout(), page, params)
			return nil
		},
	}

	cmd.Flags().StringVarP(&params.Search, "search", "q", "", "search title or artist")
	cmd.Flags().StringVarP(&params.Genre, "genre", "g", "", "exact genre")
	cmd.Flags().IntVarP(&params.Page, "page", "p", 0, "page number (server default 1)")
	cmd.Flags().IntVarP(&params.Limit, "limit", "n", 0, "items per page (server default)")

	return cmd
}

func printItems(w io.Writer, page *domain.ItemPage, params client.ListParams) {
	row := func(id, title, artist, genre, dur, likes, tags string) string {
		return fmt.Sprintf("%-5s %-32s %-20s %-10s %6s %7s  %s", id, title, artist, genre, dur, likes, tags)
	}

	fmt.Fprintln(w, headerStyle.Render(row("ID", "TITLE", "ARTIST", "GENRE", "TIME", "LIKES", "TAGS")))
	for _, it := range page.Items {
		fmt.Fprintln(w, row(
			strconv.FormatInt(it.ID, 10),
			truncate(it.Title, 32),
			truncate(it.ArtistName, 20),
			truncate(it.Genre, 10),
			it.Duration,
			humanize.Comma(it.Likes),
			strings.Join(it.Tags, ", "),
		))
	}

	pageNum := max(params.Page, 1)
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d shown, %s matching, page %d",
		len(page.Items), humanize.Comma(page.TotalCount), pageNum)))
}

// NewGenresCommand lists the distinct genres.
func NewGenresCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List genres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			genres, err := c.Genres(ctx)
			if err != nil {
				return err
			}
			for _, g := range genres {
				fmt.Fprintln(cmd.OutOrStdout(), g)
			}
			return nil
		},
	}
}

// NewLikeCommand likes an item.
func NewLikeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "like <item-id>",
		Short: "Like an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid item id %q", args[0])
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			item, err := c.Like(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s by %s now has %s likes\n",
				item.Title, item.ArtistName, humanize.Comma(item.Likes))
			return nil
		},
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
