package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"photogallery/gallery"
)

// locationFlags registers --lat/--lon. Either both or neither should be
// set; the store rejects a lone coordinate.
type locationFlags struct {
	lat, lon float64
}

func (l *locationFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&l.lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&l.lon, "lon", 0, "Longitude in degrees")
}

func (l *locationFlags) values(cmd *cobra.Command) (lat, lon *float64) {
	if cmd.Flags().Changed("lat") {
		v := l.lat
		lat = &v
	}
	if cmd.Flags().Changed("lon") {
		v := l.lon
		lon = &v
	}
	return lat, lon
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid photo id %q", arg)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printListing(cmd *cobra.Command, listing gallery.Listing, asJSON bool) error {
	if listing.Offline {
		fmt.Fprintln(cmd.ErrOrStderr(), "database unavailable, showing cached snapshot")
	}
	if asJSON {
		return printJSON(cmd, listing.Photos)
	}
	if len(listing.Photos) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no photos")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIMESTAMP\tLOCATION\tFILE")
	for _, p := range listing.Photos {
		location := "-"
		if p.HasLocation() {
			location = strconv.FormatFloat(*p.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(*p.Longitude, 'f', -1, 64)
		}
		name := p.Label()
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, name, p.Timestamp, location, p.FilePath)
	}
	return w.Flush()
}
