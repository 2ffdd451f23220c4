package cmd

import (
	"fmt"
	"text/tabwriter"
	"toonreel/internal/config"
	"toonreel/internal/storage"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent pipeline runs",
	RunE:  historyCommand,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func historyCommand(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	if cfg.DatabasePath == "" {
		return fmt.Errorf("run journal is disabled (DATABASE_PATH is empty)")
	}

	db, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.RecentRuns(historyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tID\tCHARACTER\tSTATUS\tVIDEO ENDPOINT\tERROR")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.ID, run.Character, run.Status, run.VideoEndpoint, run.Error)
	}
	return w.Flush()
}
