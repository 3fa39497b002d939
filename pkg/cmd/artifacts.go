package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/CollapseLoader/CollapseUpdater/pkg/artifacts"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Lists the artifacts in the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		storePath, err := cfg.StorePath()
		if err != nil {
			return err
		}

		store, err := artifacts.Open(storePath)
		if err != nil {
			return err
		}
		defer store.Close()

		all, err := store.List()
		if err != nil {
			return err
		}

		if len(all) == 0 {
			fmt.Println("No artifacts stored, yet.")
			return nil
		}

		sort.Slice(all, func(i, j int) bool {
			return all[i].Created.Before(all[j].Created)
		})

		for _, meta := range all {
			fmt.Printf("%s  %s (%s)\n", meta.Created.Format("02.01.2006 15:04:05"), meta.Name, meta.Run)
			for _, file := range meta.Files {
				fmt.Printf("   %s  %d bytes  sha256:%s\n", file.Name, file.Size, file.Sha256)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(artifactsCmd)
}
