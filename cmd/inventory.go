package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/gcapi"
)

// inventoryCmd represents the inventory command
var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "List your trackable inventory",
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := gcapi.GetTrackableInventory(nil)
		if err != nil {
			utils.Log.Fatal("Inventory fetch failed: ", err)
		}
		for _, e := range entries {
			fmt.Printf("%s\t%s\n", e.ReferenceCode, e.Name)
		}
		utils.Log.Infof("%d trackables in inventory", len(entries))
	},
}

func init() {
	rootCmd.AddCommand(inventoryCmd)
}
