package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"Playdeck/core/metadata"
	"Playdeck/server"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Print the track library with extracted metadata",
	Long:  `Scan the configured track store and print each audio file with the title, artist and duration the server would report for it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := server.NewStore(ctx, cfg)
		if err != nil {
			return err
		}
		extractor, redisClient := server.NewExtractor(ctx, cfg, store)
		if redisClient != nil {
			defer redisClient.Close()
		}

		files, err := store.List(ctx)
		if err != nil {
			return err
		}

		var total int64
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tTITLE\tARTIST\tDURATION\tSIZE\tMODIFIED")
		for _, f := range files {
			meta, _ := extractor.Extract(ctx, f.ID)
			track := metadata.Resolve(f.ID, metadata.Fields{}, meta)
			duration := "-"
			if track.Duration != nil {
				duration = formatDuration(*track.Duration)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				f.ID, track.Title, track.Artist, duration, humanize.IBytes(uint64(f.Size)), humanize.Time(f.ModTime))
			total += f.Size
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%s tracks, %s\n", humanize.Comma(int64(len(files))), humanize.IBytes(uint64(total)))
		return nil
	},
}

// formatDuration renders seconds as m:ss.
func formatDuration(seconds int) string {
	return strconv.Itoa(seconds/60) + ":" + fmt.Sprintf("%02d", seconds%60)
}

func init() {
	rootCmd.AddCommand(libraryCmd)
}
