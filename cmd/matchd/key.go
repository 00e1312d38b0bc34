package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/matchcache/cache"
)

type keyFlags struct {
	prefix string
}

func newKeyCmd() *cobra.Command {
	var opts keyFlags

	cmd := &cobra.Command{
		Use:   "key <file> <job-description>",
		Short: "Print the cache key for a document and job description",
		Long: `Print the cache key the service would use for an upload. Useful
with DELETE /cache/{key} to drop a stale analysis.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := os.ReadFile(args[0]) // #nosec G304 -- operator-supplied path.
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			keyer := cache.NewMD5Keyer(cache.WithPrefix(opts.prefix))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), keyer.Key(document, args[1]))
			return err
		},
	}

	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "Key prefix configured as cache.key_prefix")
	return cmd
}
