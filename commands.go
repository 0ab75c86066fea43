package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/tempo/internal/config"
	"github.com/sadopc/tempo/internal/export"
	"github.com/sadopc/tempo/internal/store"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the summary and daily focus minutes for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("period")
			period, err := store.ParsePeriod(name)
			if err != nil {
				return err
			}
			c, _, done, err := openCore(cmd)
			if err != nil {
				return err
			}
			defer done()

			summary, days := c.Stats(period)
			writeStats(cmd.OutOrStdout(), period, summary, days)
			return nil
		},
	}
	cmd.Flags().StringP("period", "p", "week", "today, week, month or all")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			c, _, done, err := openCore(cmd)
			if err != nil {
				return err
			}
			defer done()

			writeHistory(cmd.OutOrStdout(), c.RecentSessions(limit))
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "number of sessions to show")
	return cmd
}

func achievementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "List achievements and their progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, done, err := openCore(cmd)
			if err != nil {
				return err
			}
			defer done()

			writeAchievements(cmd.OutOrStdout(), c.AchievementList())
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions to CSV, JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			periodName, _ := cmd.Flags().GetString("period")
			period, err := store.ParsePeriod(periodName)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = fmt.Sprintf("tempo-export-%s.%s", time.Now().Format("2006-01-02"), format)
			}

			c, _, done, err := openCore(cmd)
			if err != nil {
				return err
			}
			defer done()

			sessions, err := c.Sessions.GetSessions(period)
			if err != nil {
				return err
			}
			if err := export.Write(format, sessions, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", pluralize(len(sessions), "session"), out)
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "csv", "csv, json or yaml")
	cmd.Flags().StringP("out", "o", "", "output file (default: tempo-export-<date>.<format>)")
	cmd.Flags().StringP("period", "p", "all", "today, week, month or all")
	return cmd
}

func clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all sessions and reset achievement progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("clear deletes all history; rerun with --yes to confirm")
			}
			c, _, done, err := openCore(cmd)
			if err != nil {
				return err
			}
			defer done()

			n, err := c.ClearData()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", pluralize(int(n), "session"))
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "confirm deletion")
	return cmd
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default tempo.toml to the config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.DefaultDir()
			if err != nil {
				return err
			}
			path, err := config.InitFile(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
}

func writeStats(w io.Writer, period store.Period, s store.StatsSummary, days []store.ChartData) {
	fmt.Fprintf(w, "Stats (%s)\n", period)
	if s.TotalSessions == 0 {
		fmt.Fprintln(w, "  No sessions in this period.")
		return
	}
	fmt.Fprintf(w, "  Sessions:        %s\n", humanize.Comma(int64(s.TotalSessions)))
	fmt.Fprintf(w, "  Completed:       %s (%.0f%%)\n", humanize.Comma(int64(s.CompletedSessions)), s.CompletionRate)
	fmt.Fprintf(w, "  Focus time:      %s min\n", humanize.Comma(int64(s.TotalFocusTime)))
	fmt.Fprintf(w, "  Average length:  %.1f min\n", s.AverageSessionLength)
	fmt.Fprintf(w, "  Current streak:  %s\n", pluralize(s.CurrentStreak, "day"))
	fmt.Fprintf(w, "  Best streak:     %s\n", pluralize(s.BestStreak, "day"))

	if len(days) == 0 {
		return
	}
	peak := 0
	for _, d := range days {
		peak = max(peak, d.FocusMinutes)
	}
	fmt.Fprintln(w)
	for _, d := range days {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", d.FocusMinutes*30/peak)
		}
		fmt.Fprintf(w, "  %s %-6s %4d min %s\n", d.Date.Format("2006-01-02"), d.DayLabel, d.FocusMinutes, bar)
	}
}

func writeHistory(w io.Writer, sessions []store.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions yet.")
		return
	}
	for _, s := range sessions {
		status := "done"
		switch {
		case s.EndedAt == nil:
			status = "open"
		case !s.Completed:
			status = "skipped"
		}
		fmt.Fprintf(w, "%s  %-12s %3d min  %-7s  %s\n",
			s.StartedAt.Local().Format("2006-01-02 15:04"), s.Mode.Label(),
			s.DurationSeconds/60, status, humanize.Time(s.StartedAt))
	}
}

func writeAchievements(w io.Writer, all []store.Achievement) {
	if len(all) == 0 {
		fmt.Fprintln(w, "No achievements available.")
		return
	}
	for _, a := range all {
		mark := "[ ]"
		when := ""
		if a.Unlocked {
			mark = "[x]"
			if a.UnlockedAt != nil {
				when = "  unlocked " + humanize.Time(*a.UnlockedAt)
			}
		}
		fmt.Fprintf(w, "%s %-24s %3.0f%%  %s%s\n", mark, a.Title, a.Percent(), a.Description, when)
	}
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), word)
}
