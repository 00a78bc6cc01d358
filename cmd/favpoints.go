package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/gcapi"
)

// favpointsCmd represents the favpoints command
var favpointsCmd = &cobra.Command{
	Use:   "favpoints",
	Short: "Show your available favorite points",
	Run: func(cmd *cobra.Command, args []string) {
		profile, _ := cmd.Flags().GetString("profile")
		if profile == "" {
			utils.Log.Fatal("Please provide your profile code (--profile, a PR... code)")
		}

		points, err := gcapi.GetAvailableFavoritePoints(nil, profile)
		if err != nil {
			utils.Log.Fatal("Favorite point fetch failed: ", err)
		}
		fmt.Printf("%d favorite points available\n", points)
	},
}

func init() {
	rootCmd.AddCommand(favpointsCmd)
	favpointsCmd.Flags().StringP("profile", "p", "", "Profile reference code (PR...)")
}
