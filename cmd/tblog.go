package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/gcapi"
)

var trackableActionFlags = map[string]gcapi.TrackableLogType{
	"note":       gcapi.TrackableLogTypeWriteNote,
	"retrieved":  gcapi.TrackableLogTypeRetrieved,
	"dropped":    gcapi.TrackableLogTypeDropped,
	"grabbed":    gcapi.TrackableLogTypeGrabbed,
	"discovered": gcapi.TrackableLogTypeDiscovered,
	"visited":    gcapi.TrackableLogTypeVisited,
}

// tblogCmd represents the tblog command
var tblogCmd = &cobra.Command{
	Use:   "tblog",
	Short: "Post a trackable log",
	Long:  "Posts a log entry for a trackable (travel bug, geocoin, ...).",
	Run: func(cmd *cobra.Command, args []string) {
		tbCode, _ := cmd.Flags().GetString("code")
		trackingCode, _ := cmd.Flags().GetString("tracking-code")
		action, _ := cmd.Flags().GetString("action")
		text, _ := cmd.Flags().GetString("text")

		if tbCode == "" {
			utils.Log.Fatal("Please provide a trackable code (--code)")
		}
		act, ok := trackableActionFlags[action]
		if !ok {
			utils.Log.Fatal("Unknown trackable action: ", action)
		}

		status, refCode := gcapi.PostTrackableLog(nil, gcapi.TrackableLog{
			Geocode:      tbCode,
			TrackingCode: trackingCode,
			Action:       act,
		}, time.Now(), text)
		if status != gcapi.StatusNoError {
			utils.Log.Fatal("Trackable log post failed: ", status)
		}
		fmt.Println("Trackable log posted:", refCode)
	},
}

func init() {
	rootCmd.AddCommand(tblogCmd)
	tblogCmd.Flags().StringP("code", "c", "", "Public trackable code (TB...)")
	tblogCmd.Flags().StringP("tracking-code", "", "", "Secret tracking code")
	tblogCmd.Flags().StringP("action", "a", "note", "Action (note, retrieved, dropped, grabbed, discovered, visited)")
	tblogCmd.Flags().StringP("text", "m", "", "Log text")
}
