package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:     "get <collection> <id>",
	Short:   "Fetch a document",
	GroupID: "docs",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := docsClient.Get(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		printDoc(doc)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list <collection>",
	Short:   "List every document in a collection",
	GroupID: "docs",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := docsClient.List(context.Background(), args[0])
		if err != nil {
			return err
		}
		printDocList(docs)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:     "create <collection> <fields-json>",
	Short:   "Create a document with a server-allocated ID",
	GroupID: "docs",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFieldsArg(args[1])
		if err != nil {
			return err
		}
		doc, err := docsClient.Create(context.Background(), args[0], fields)
		if err != nil {
			return err
		}
		printDoc(doc)
		return nil
	},
}

var putCmd = &cobra.Command{
	Use:     "put <collection> <id> <fields-json>",
	Short:   "Write a document (merge by default)",
	GroupID: "docs",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFieldsArg(args[2])
		if err != nil {
			return err
		}
		replace, _ := cmd.Flags().GetBool("replace")
		doc, err := docsClient.Set(context.Background(), args[0], args[1], fields, !replace)
		if err != nil {
			return err
		}
		printDoc(doc)
		return nil
	},
}

var patchCmd = &cobra.Command{
	Use:     "patch <collection> <id> <fields-json>",
	Short:   "Patch fields of an existing document",
	GroupID: "docs",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFieldsArg(args[2])
		if err != nil {
			return err
		}
		doc, err := docsClient.Update(context.Background(), args[0], args[1], fields)
		if err != nil {
			return err
		}
		printDoc(doc)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <collection> <id>",
	Short:   "Delete a document",
	GroupID: "docs",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := docsClient.Delete(context.Background(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s/%s\n", args[0], args[1])
		return nil
	},
}

var nearbyCmd = &cobra.Command{
	Use:     "nearby <collection>",
	Short:   "Find documents within a radius of a coordinate",
	GroupID: "docs",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		radius, _ := cmd.Flags().GetFloat64("radius")

		docs, err := docsClient.Nearby(context.Background(), args[0], lat, lng, radius)
		if err != nil {
			return err
		}
		printDocList(docs)
		return nil
	},
}

func init() {
	putCmd.Flags().Bool("replace", false, "replace the document instead of merging")
	nearbyCmd.Flags().Float64("lat", 0, "latitude of the search center")
	nearbyCmd.Flags().Float64("lng", 0, "longitude of the search center")
	nearbyCmd.Flags().Float64("radius", 1000, "search radius in meters")
	_ = nearbyCmd.MarkFlagRequired("lat")
	_ = nearbyCmd.MarkFlagRequired("lng")
}
