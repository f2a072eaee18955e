package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	collectionsCmd := &cobra.Command{Use: "collections", Short: "Collection operations"}

	// list
	var tag string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/collections"
			if tag != "" {
				path += "?tag=" + tag
			}
			data, err := doGet(path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().StringVarP(&tag, "tag", "t", "", "Filter by tag")
	collectionsCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get COLLECTION_ID",
		Short: "Get a collection by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/collections/" + args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	collectionsCmd.AddCommand(getCmd)

	// create
	var name, description string
	var tags []string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			payload := map[string]interface{}{"name": name}
			if description != "" {
				payload["description"] = description
			}
			if len(tags) > 0 {
				payload["tags"] = tags
			}
			data, err := doPostJSON("/api/collections", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Collection name (required)")
	createCmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	createCmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags")
	_ = createCmd.MarkFlagRequired("name")
	collectionsCmd.AddCommand(createCmd)

	// delete
	deleteCmd := &cobra.Command{
		Use:   "delete COLLECTION_ID",
		Short: "Delete a collection and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doDelete("/api/collections/" + args[0])
		},
	}
	collectionsCmd.AddCommand(deleteCmd)

	// capture
	var captureName string
	captureCmd := &cobra.Command{
		Use:   "capture WINDOW_ID",
		Short: "Capture a browser window into a new collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if captureName == "" {
				return fmt.Errorf("--name required")
			}
			data, err := doPostJSON("/api/windows/"+args[0]+"/capture", map[string]interface{}{"name": captureName})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	captureCmd.Flags().StringVarP(&captureName, "name", "n", "", "Name for the new collection (required)")
	_ = captureCmd.MarkFlagRequired("name")
	collectionsCmd.AddCommand(captureCmd)

	// restore
	var windowID int
	restoreCmd := &cobra.Command{
		Use:   "restore COLLECTION_ID",
		Short: "Restore a collection into a browser window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if cmd.Flags().Changed("window") {
				payload["windowId"] = windowID
			}
			data, err := doPostJSON("/api/collections/"+args[0]+"/restore", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	restoreCmd.Flags().IntVarP(&windowID, "window", "w", 0, "Restore into an existing window instead of a new one")
	collectionsCmd.AddCommand(restoreCmd)

	rootCmd.AddCommand(collectionsCmd)
}
