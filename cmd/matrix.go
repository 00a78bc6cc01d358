package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/gcapi"
)

// matrixCmd represents the matrix command
var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Show missing D/T matrix combinations",
	Long:  "Lists the difficulty/terrain combinations still missing from your 81 matrix.",
	Run: func(cmd *cobra.Command, args []string) {
		combis, err := gcapi.GetNeededDifficultyTerrainCombis(nil)
		if err != nil {
			utils.Log.Fatal("Matrix fetch failed: ", err)
		}
		if len(combis) == 0 {
			fmt.Println("Matrix complete, nothing missing!")
			return
		}
		for _, c := range combis {
			fmt.Printf("D%.1f / T%.1f\n", c.Difficulty, c.Terrain)
		}
	},
}

func init() {
	rootCmd.AddCommand(matrixCmd)
}
