package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photogallery/gallery"
	"photogallery/models"
	"photogallery/server"
	"photogallery/store"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		timestamp string
		name      string
		loc       locationFlags
	)

	cmd := &cobra.Command{
		Use:   "add <file-path>",
		Short: "Record a photo reference",
		Long: `Record a photo by file reference. The timestamp defaults to now; name and
coordinates are stored only when given.

Examples:
  gallery add /sdcard/DCIM/img1.jpg --lat 37.77 --lon -122.42 --name "Bay"
  gallery add photos/a.jpg --timestamp 2024-01-01T00:00:00.000Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := models.PhotoInput{FilePath: args[0], Timestamp: timestamp}
			if in.Timestamp == "" {
				in.Timestamp = gallery.CaptureTimestamp(time.Now())
			}
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			in.Latitude, in.Longitude = loc.values(cmd)

			return opts.withRuntime(cmd, func(ctx context.Context, rt *server.Runtime) error {
				id, err := rt.Service.Create(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "Capture time (default now, ISO-8601 UTC)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	loc.register(cmd)
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		oldest bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List photos, newest first",
		Long: `List every photo. When the database cannot be opened the cached snapshot
is shown instead and a warning is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withReadRuntime(cmd, func(ctx context.Context, rt *server.Runtime) error {
				order := store.OrderNewestFirst
				if oldest {
					order = store.OrderOldestFirst
				}
				listing, err := rt.Service.PhotosOrdered(ctx, order)
				if err != nil && !listing.Offline {
					return err
				}
				return printListing(cmd, listing, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&oldest, "oldest", false, "Oldest first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "List photos whose name contains text (case-insensitive)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withReadRuntime(cmd, func(ctx context.Context, rt *server.Runtime) error {
				listing, err := rt.Service.Search(ctx, args[0])
				if err != nil && !listing.Offline {
					return err
				}
				return printListing(cmd, listing, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one photo as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *server.Runtime) error {
				photo, err := rt.Service.Photo(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd, photo)
			})
		},
	}
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		name          string
		clearLocation bool
		loc           locationFlags
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a photo or change its location",
		Long: `Change the mutable fields of a photo. Only the given flags are applied.

Examples:
  gallery update 3 --name "Harbor at dusk"
  gallery update 3 --lat 48.8584 --lon 2.2945
  gallery update 3 --clear-location`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			upd := models.PhotoUpdate{ClearLocation: clearLocation}
			if cmd.Flags().Changed("name") {
				upd.Name = &name
			}
			upd.Latitude, upd.Longitude = loc.values(cmd)

			return opts.withRuntime(cmd, func(ctx context.Context, rt *server.Runtime) error {
				n, err := rt.Service.Update(ctx, id, upd)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %d photo(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().BoolVar(&clearLocation, "clear-location", false, "Remove the coordinates")
	loc.register(cmd)
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a photo record",
		Long:    "Delete a photo record. The image file it references is left in place.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *server.Runtime) error {
				n, err := rt.Service.Delete(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d photo(s)\n", n)
				return nil
			})
		},
	}
}

func newCacheCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Print the cached snapshot as JSON",
		Long:  "Print the snapshot the cache mirror would serve if the database were unavailable.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withReadRuntime(cmd, func(ctx context.Context, rt *server.Runtime) error {
				return printJSON(cmd, rt.Service.Cached(ctx))
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the gallery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *server.Runtime) error {
				stats, err := rt.Service.Stats(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "photos:    %d\n", stats.Total)
				fmt.Fprintf(w, "geotagged: %d\n", stats.Geotagged)
				fmt.Fprintf(w, "cached:    %d\n", len(rt.Service.Cached(ctx)))
				if stats.Total > 0 {
					fmt.Fprintf(w, "oldest:    %s\n", stats.Oldest)
					fmt.Fprintf(w, "newest:    %s\n", stats.Newest)
				}
				return nil
			})
		},
	}
}
