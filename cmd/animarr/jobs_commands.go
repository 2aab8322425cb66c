package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type cliExecution struct {
	ID             string          `json:"id"`
	JobType        string          `json:"job_type"`
	TriggeredBy    string          `json:"triggered_by"`
	Status         string          `json:"status"`
	Params         json.RawMessage `json:"params,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          string          `json:"error,omitempty"`
	ItemsProcessed int             `json:"items_processed"`
	ItemsSucceeded int             `json:"items_succeeded"`
	ItemsFailed    int             `json:"items_failed"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

type cliExecutionList struct {
	Executions []cliExecution `json:"executions"`
	Count      int            `json:"count"`
}

type cliStatistics struct {
	Period     string `json:"period"`
	Statistics []struct {
		Status         string `json:"status"`
		Count          int    `json:"count"`
		TotalProcessed int    `json:"total_processed"`
		TotalSucceeded int    `json:"total_succeeded"`
		TotalFailed    int    `json:"total_failed"`
	} `json:"statistics"`
}

func newJobsCommand(cmdCtx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}

	jobsCmd.AddCommand(newJobsRunCommand(cmdCtx))
	jobsCmd.AddCommand(newJobsHistoryCommand(cmdCtx))
	jobsCmd.AddCommand(newJobsRunningCommand(cmdCtx))
	jobsCmd.AddCommand(newJobsStatsCommand(cmdCtx))

	return jobsCmd
}

func newJobsRunCommand(cmdCtx *commandContext) *cobra.Command {
	var season string
	var seasonYear int
	var titleID int64

	cmd := &cobra.Command{
		Use:   "run <job-type>",
		Short: "Trigger a job (sync_catalog, scan_feed, init_store, export_downloads)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cmdCtx.apiClient()
			if err != nil {
				return err
			}

			body := map[string]any{"job_type": args[0]}
			if season != "" {
				body["season"] = season
			}
			if seasonYear > 0 {
				body["season_year"] = seasonYear
			}
			if titleID > 0 {
				body["title_id"] = titleID
			}

			var execution cliExecution
			if err := client.post("/api/jobs/run", body, &execution); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started %s (%s)\n", execution.ID, execution.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&season, "season", "", "Season override for sync_catalog (WINTER, SPRING, SUMMER, FALL)")
	cmd.Flags().IntVar(&seasonYear, "year", 0, "Season year override for sync_catalog")
	cmd.Flags().Int64Var(&titleID, "title", 0, "Restrict the job to a single catalog title")
	return cmd
}

func newJobsHistoryCommand(cmdCtx *commandContext) *cobra.Command {
	var jobType string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent job executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cmdCtx.apiClient()
			if err != nil {
				return err
			}

			query := url.Values{}
			if jobType != "" {
				query.Set("job_type", jobType)
			}
			if status != "" {
				query.Set("status", status)
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/jobs/history"
			if encoded := query.Encode(); encoded != "" {
				path += "?" + encoded
			}

			var list cliExecutionList
			if err := client.get(path, &list); err != nil {
				return err
			}
			printExecutions(cmd, list.Executions)
			return nil
		},
	}

	cmd.Flags().StringVar(&jobType, "type", "", "Filter by job type")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (queued, running, completed, failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of records")
	return cmd
}

func newJobsRunningCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "running",
		Short: "Show jobs currently in flight",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cmdCtx.apiClient()
			if err != nil {
				return err
			}

			var list cliExecutionList
			if err := client.get("/api/jobs/running", &list); err != nil {
				return err
			}
			if len(list.Executions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs running")
				return nil
			}
			printExecutions(cmd, list.Executions)
			return nil
		},
	}
}

func newJobsStatsCommand(cmdCtx *commandContext) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show job statistics by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cmdCtx.apiClient()
			if err != nil {
				return err
			}

			var stats cliStatistics
			if err := client.get("/api/jobs/statistics?period="+url.QueryEscape(period), &stats); err != nil {
				return err
			}

			rows := make([][]string, 0, len(stats.Statistics))
			for _, agg := range stats.Statistics {
				rows = append(rows, []string{
					agg.Status,
					strconv.Itoa(agg.Count),
					strconv.Itoa(agg.TotalProcessed),
					strconv.Itoa(agg.TotalSucceeded),
					strconv.Itoa(agg.TotalFailed),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Period: %s\n", stats.Period)
			writeRows(out,
				[]string{"STATUS", "RUNS", "PROCESSED", "SUCCEEDED", "FAILED"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight})
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "24h", "Aggregation window (24h, 7d, 30d, all)")
	return cmd
}

func printExecutions(cmd *cobra.Command, executions []cliExecution) {
	rows := make([][]string, 0, len(executions))
	for _, execution := range executions {
		rows = append(rows, executionRow(execution))
	}
	writeRows(cmd.OutOrStdout(),
		[]string{"ID", "TYPE", "STATUS", "TRIGGER", "ITEMS", "STARTED", "DURATION", "ERROR"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft})
}

func executionRow(execution cliExecution) []string {
	items := fmt.Sprintf("%d/%d", execution.ItemsSucceeded, execution.ItemsProcessed)
	return []string{
		execution.ID,
		execution.JobType,
		execution.Status,
		execution.TriggeredBy,
		items,
		execution.StartedAt.Local().Format("2006-01-02 15:04:05"),
		formatDuration(execution.StartedAt, execution.CompletedAt),
		truncate(execution.Error, 60),
	}
}

func formatDuration(started time.Time, completed *time.Time) string {
	if completed == nil {
		return "-"
	}
	elapsed := completed.Sub(started)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed.Round(time.Millisecond).String()
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
