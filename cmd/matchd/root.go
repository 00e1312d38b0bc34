package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "matchd",
		Short: "Resume match analysis service",
		Long: `matchd scores uploaded resumes against job descriptions with an
OpenAI-compatible model and caches every result by content fingerprint.

Redis is used when reachable at startup; otherwise results are cached
in process memory.`,
		Version:       versionString(),
		SilenceUsage:  true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newKeyCmd())
	root.AddCommand(newVersionCmd())
	return root
}
