package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"photogallery/gallery"
	"photogallery/models"
	"photogallery/server"
)

func newCaptureCmd(opts *rootOptions) *cobra.Command {
	var loc locationFlags

	cmd := &cobra.Command{
		Use:   "capture <image-file>",
		Short: "Capture an existing image file as a new photo",
		Long: `Run the capture flow with an image file standing in for the camera: the
photo is stamped with the current time, tagged with --lat/--lon when given,
named Photo_<date> and saved.

Examples:
  gallery capture ./shot.jpg --lat 37.7749 --lon -122.4194
  gallery capture ./shot.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var locator gallery.StaticLocator
			if lat, lon := loc.values(cmd); lat != nil && lon != nil {
				locator.Position = &models.Coordinates{Latitude: *lat, Longitude: *lon}
			}

			return opts.withRuntime(cmd, func(ctx context.Context, rt *server.Runtime) error {
				sess := gallery.NewSession(rt.Service, gallery.FileCamera{Path: args[0]}, locator)
				err := sess.Start(ctx)
				printNotices(cmd, sess)
				if err != nil {
					return err
				}

				draft, err := sess.Capture(ctx)
				if err != nil {
					return err
				}
				if draft == nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "capture canceled")
					return nil
				}

				id, err := sess.SavePending(ctx)
				printNotices(cmd, sess)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", id, draft.Name, draft.URI)
				return nil
			})
		},
	}
	loc.register(cmd)
	return cmd
}

func newMapCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "map <id>",
		Short: "Print the map link for a geotagged photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *server.Runtime) error {
				sess := gallery.NewSession(rt.Service, nil, nil,
					gallery.WithLinker(gallery.WriterLinker{W: cmd.OutOrStdout()}))
				return sess.OpenMap(ctx, id)
			})
		},
	}
}

func printNotices(cmd *cobra.Command, sess *gallery.Session) {
	for _, n := range sess.Notices() {
		fmt.Fprintln(cmd.ErrOrStderr(), n)
	}
}
