package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "List locally stored caches",
	Long:  "Lists the caches stored by previous 'search --db' runs.",
	Run: func(cmd *cobra.Command, args []string) {
		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath == "" {
			utils.Log.Fatal("Please provide the database path (--db)")
		}

		db, err := storage.Open(dbPath)
		if err != nil {
			utils.Log.Fatal("Cannot open database: ", err)
		}
		defer db.Close()

		records, err := db.ListRecords(context.Background())
		if err != nil {
			utils.Log.Fatal("Cannot list records: ", err)
		}
		for _, r := range records {
			line := fmt.Sprintf("%s\t%s\tD%.1f/T%.1f", r.Geocode, r.Name, r.Difficulty, r.Terrain)
			if r.Found == "yes" {
				line += "\tfound"
			}
			if r.Disabled {
				line += "\tdisabled"
			}
			if r.Archived {
				line += "\tarchived"
			}
			fmt.Println(line)
		}
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.Flags().StringP("db", "", "", "SQLite file written by 'search --db'")
}
