package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	snoozeCmd := &cobra.Command{Use: "snooze", Short: "Snooze operations"}

	// window
	var wake, reason string
	windowCmd := &cobra.Command{
		Use:   "window WINDOW_ID",
		Short: "Snooze an entire window until the wake time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("WINDOW_ID must be numeric")
			}
			at, err := parseWake(wake)
			if err != nil {
				return err
			}
			payload := map[string]interface{}{"windowId": id, "wake": at.Format(time.RFC3339)}
			if reason != "" {
				payload["reason"] = reason
			}
			data, err := doPostJSON("/api/snooze/window", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	windowCmd.Flags().StringVarP(&wake, "wake", "w", "", "Wake time, RFC3339 or duration like 2h (required)")
	windowCmd.Flags().StringVarP(&reason, "reason", "r", "", "Why the window is snoozed")
	_ = windowCmd.MarkFlagRequired("wake")
	snoozeCmd.AddCommand(windowCmd)

	// tabs
	var tabWake, tabReason string
	var tabIDs []int
	tabsCmd := &cobra.Command{
		Use:   "tabs",
		Short: "Snooze individual tabs until the wake time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(tabIDs) == 0 {
				return fmt.Errorf("--tab required at least once")
			}
			at, err := parseWake(tabWake)
			if err != nil {
				return err
			}
			payload := map[string]interface{}{"tabIds": tabIDs, "wake": at.Format(time.RFC3339)}
			if tabReason != "" {
				payload["reason"] = tabReason
			}
			data, err := doPostJSON("/api/snooze/tabs", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	tabsCmd.Flags().IntSliceVar(&tabIDs, "tab", nil, "Live tab ID (repeatable)")
	tabsCmd.Flags().StringVarP(&tabWake, "wake", "w", "", "Wake time, RFC3339 or duration like 2h (required)")
	tabsCmd.Flags().StringVarP(&tabReason, "reason", "r", "", "Why the tabs are snoozed")
	_ = tabsCmd.MarkFlagRequired("wake")
	snoozeCmd.AddCommand(tabsCmd)

	// wake
	wakeCmd := &cobra.Command{
		Use:   "wake SNOOZE_ID",
		Short: "Wake a snoozed window or tab immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doPostJSON("/api/snooze/"+args[0]+"/wake", nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	snoozeCmd.AddCommand(wakeCmd)

	rootCmd.AddCommand(snoozeCmd)

	// dedupe
	var scope, strategy string
	var dryRun bool
	var dedupeWindow int
	dedupeCmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Close duplicate tabs across the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"scope":    scope,
				"strategy": strategy,
				"dryRun":   dryRun,
			}
			if cmd.Flags().Changed("window") {
				payload["windowId"] = dedupeWindow
			}
			data, err := doPostJSON("/api/dedupe", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	dedupeCmd.Flags().StringVarP(&scope, "scope", "s", "global", "Scope: global, per-window, or window")
	dedupeCmd.Flags().StringVar(&strategy, "strategy", "oldest", "Keep strategy: oldest, newest, mru, lru, all, none")
	dedupeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report duplicates without closing anything")
	dedupeCmd.Flags().IntVarP(&dedupeWindow, "window", "w", 0, "Window ID for --scope window")
	rootCmd.AddCommand(dedupeCmd)
}

// parseWake accepts an absolute RFC3339 time or a relative duration ("90m").
func parseWake(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("--wake required")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("wake must be RFC3339 or a duration: %w", err)
	}
	return t, nil
}
