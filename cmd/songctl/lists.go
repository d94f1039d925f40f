package main

import (
	"fmt"
	"os"
	"time"

	"github.com/campus-radio/songdesk/internal/export"
	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	pruneBefore string
	exportDate  string
	exportOut   string
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete day lists past the retention window",
	Long: `Without --before, lists older than 100 days are removed, the same as the
nightly job. With --before, every list dated earlier than that day goes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			removed []string
			err     error
		)
		if pruneBefore == "" {
			removed, err = app.Requests.PruneExpired(cmd.Context())
		} else {
			cutoff, perr := time.ParseInLocation(domain.DayLayout, pruneBefore, time.Local)
			if perr != nil {
				return fmt.Errorf("--before: %w", domain.ErrInvalidDate)
			}
			removed, err = app.Requests.PruneBefore(cmd.Context(), cutoff)
		}
		if len(removed) > 0 {
			logger.Info("pruned lists", zap.Strings("days", removed))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d lists\n", len(removed))
		return err
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a day's list to an .xlsx file",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := exportDate
		if day == "" {
			day = app.Requests.CurrentDay()
		}
		if !domain.ValidDay(day) {
			return fmt.Errorf("--date: %w", domain.ErrInvalidDate)
		}

		list, err := app.Requests.Raw(cmd.Context(), day)
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = export.FileName(day)
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := export.WriteXLSX(f, list); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d requests to %s\n", len(list), out)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge-downloads",
	Short: "Empty the song download cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Files.Purge()
	},
}

func init() {
	pruneCmd.Flags().StringVar(&pruneBefore, "before", "", "remove lists dated before this day (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportDate, "date", "", "day to export (YYYY-MM-DD), defaults to the current broadcast day")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, defaults to the download name")
}
