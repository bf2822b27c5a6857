package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print id:name per entity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := store.AllEntityIDs(rootCtx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			e, err := store.GetEntity(rootCtx, id)
			if err != nil {
				return err
			}
			fmt.Printf("%d:%s\n", e.ID, e.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
