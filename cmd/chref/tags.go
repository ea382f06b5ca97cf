// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/JosephRedfern/clickhouse-function-reference/internal/fiddle"

	"github.com/spf13/cobra"
)

var (
	allTags bool

	tagsCmd = &cobra.Command{
		Use:   "tags",
		Short: "List the version tags a generate run would process",
		Long: `List the published version tags after applying the configured filter:
one tag per major.minor release plus the mutable aliases, no alpine
variants, honoring the floor version and version limit. Use --all to
see the unfiltered listing.`,
		RunE: runTags,
	}
)

func init() {
	tagsCmd.Flags().BoolVar(&allTags, "all", false, "list every published tag, unfiltered")
}

func runTags(cmd *cobra.Command, _ []string) error {
	client := fiddle.NewClient(fiddle.WithBaseURL(cfg.FiddleURL))
	tags, err := client.Tags(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing tags: %w", err)
	}

	if !allTags {
		opts := fiddle.DefaultFilterOptions()
		opts.MutableAliases = cfg.MutableAliases
		opts.FloorVersion = cfg.FloorVersion
		opts.Limit = cfg.VersionLimit
		tags = fiddle.FilterTags(tags, opts)
	}

	for _, tag := range tags {
		fmt.Println(tag)
	}
	return nil
}
