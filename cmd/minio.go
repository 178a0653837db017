package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"Playdeck/storage"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var minioStats bool

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "List audio objects in the MinIO bucket",
	Long:  `Connect to MinIO with the configured credentials and list the audio objects under the configured prefix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewMinioStore(cmd.Context(), storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
			Prefix:    cfg.MinioPrefix,
		}, storage.Policy{AllowedExtensions: cfg.AllowedExtensions})
		if err != nil {
			return err
		}

		if minioStats {
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d objects, %s", store.Location(), stats.TotalObjects, humanize.IBytes(uint64(stats.TotalSize)))
			if !stats.LastModified.IsZero() {
				fmt.Printf(", last modified %s", humanize.Time(stats.LastModified))
			}
			fmt.Println()
			return nil
		}

		files, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tSIZE\tMODIFIED\tTYPE")
		for _, f := range files {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, humanize.IBytes(uint64(f.Size)), humanize.Time(f.ModTime), f.ContentType)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d audio objects in %s\n", len(files), store.Location())
		return nil
	},
}

func init() {
	minioCmd.Flags().BoolVar(&minioStats, "stats", false, "print object count and total size only")
	rootCmd.AddCommand(minioCmd)
}
