package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/gcapi"
)

var logTypeFlags = map[string]gcapi.LogType{
	"found":       gcapi.LogTypeFound,
	"dnf":         gcapi.LogTypeDidNotFind,
	"note":        gcapi.LogTypeNote,
	"will-attend": gcapi.LogTypeWillAttend,
	"attended":    gcapi.LogTypeAttended,
}

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Post a geocache log",
	Long:  "Posts a log entry for a geocache, optionally attaching an image.",
	Run: func(cmd *cobra.Command, args []string) {
		geocode, _ := cmd.Flags().GetString("geocode")
		logType, _ := cmd.Flags().GetString("type")
		text, _ := cmd.Flags().GetString("text")
		dateStr, _ := cmd.Flags().GetString("date")
		favorite, _ := cmd.Flags().GetBool("favorite")
		imagePath, _ := cmd.Flags().GetString("image")
		imageTitle, _ := cmd.Flags().GetString("image-title")
		imageDesc, _ := cmd.Flags().GetString("image-description")

		if geocode == "" {
			utils.Log.Fatal("Please provide a geocode (--geocode)")
		}
		lt, ok := logTypeFlags[logType]
		if !ok {
			utils.Log.Fatal("Unknown log type: ", logType)
		}

		date := time.Now()
		if dateStr != "" {
			parsed, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				utils.Log.Fatal("Bad date, expected YYYY-MM-DD: ", err)
			}
			date = parsed
		}

		status, refCode := gcapi.PostLog(nil, geocode, lt, date, text, nil, favorite)
		if status != gcapi.StatusNoError {
			utils.Log.Fatal("Log post failed: ", status)
		}
		fmt.Println("Log posted:", refCode)

		if imagePath == "" {
			return
		}

		data, err := os.ReadFile(imagePath)
		if err != nil {
			utils.Log.Fatal("Cannot read image: ", err)
		}
		status, imgURL := gcapi.PostLogImage(nil, refCode, gcapi.Image{
			Data:        data,
			Title:       imageTitle,
			Description: imageDesc,
		})
		if status != gcapi.StatusNoError {
			utils.Log.Fatal("Image post failed: ", status)
		}
		fmt.Println("Image posted:", imgURL)
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().StringP("geocode", "g", "", "Geocache code (GC...)")
	logCmd.Flags().StringP("type", "t", "found", "Log type (found, dnf, note, will-attend, attended)")
	logCmd.Flags().StringP("text", "m", "", "Log text")
	logCmd.Flags().StringP("date", "d", "", "Log date (YYYY-MM-DD, default today)")
	logCmd.Flags().BoolP("favorite", "f", false, "Award a favorite point")
	logCmd.Flags().StringP("image", "i", "", "JPEG image to attach")
	logCmd.Flags().StringP("image-title", "", "", "Image title")
	logCmd.Flags().StringP("image-description", "", "", "Image description")
}
