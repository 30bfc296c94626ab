package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/activerest-io/activerest/pkg/activerest"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		where   []string
		selects []string
		limit   int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "list RESOURCE",
		Short: "List resource elements",
		Long:  "Fetch a resource collection, optionally filtered, windowed, and trimmed to selected fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := resourceQuery(args[0])
			if err != nil {
				return err
			}

			conditions, err := parseConditions(where)
			if err != nil {
				return err
			}

			query.Where(conditions).Select(selects...)

			if cmd.Flags().Changed("limit") {
				query.Limit(limit)
			}

			if cmd.Flags().Changed("offset") {
				query.Offset(offset)
			}

			records, err := query.All(cmd.Context())
			if err != nil {
				return err
			}

			if err := renderRecords(records); err != nil {
				return err
			}

			if page := query.Pagination(); page != nil && page.TotalCount > 0 {
				fmt.Printf("\nShowing %d of %d\n", len(records), page.TotalCount)
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "filter condition as key=value (repeatable)")
	cmd.Flags().StringSliceVarP(&selects, "select", "s", nil, "fields to select")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of elements")
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "number of elements to skip")

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var selects []string

	cmd := &cobra.Command{
		Use:   "get RESOURCE ID",
		Short: "Fetch a single resource element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := resourceQuery(args[0])
			if err != nil {
				return err
			}

			record, err := query.Select(selects...).One(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			return renderRecord(record)
		},
	}

	cmd.Flags().StringSliceVarP(&selects, "select", "s", nil, "fields to select")

	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var (
		sets    []string
		rawJSON string
	)

	cmd := &cobra.Command{
		Use:   "create RESOURCE",
		Short: "Create a resource element",
		Long:  "Create an element from --set key=value pairs or a raw --json object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := resourceQuery(args[0])
			if err != nil {
				return err
			}

			record, err := recordFromFlags(sets, rawJSON)
			if err != nil {
				return err
			}

			created, err := query.Create(cmd.Context(), record)
			if err != nil {
				return err
			}

			if reportValidationErrors(created) {
				return fmt.Errorf("%s was not created", args[0])
			}

			return renderRecord(created)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute as key=value (repeatable)")
	cmd.Flags().StringVar(&rawJSON, "json", "", "attributes as a raw JSON object")

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	var (
		sets    []string
		rawJSON string
	)

	cmd := &cobra.Command{
		Use:   "update RESOURCE ID",
		Short: "Update a resource element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := resourceQuery(args[0])
			if err != nil {
				return err
			}

			record, err := recordFromFlags(sets, rawJSON)
			if err != nil {
				return err
			}

			record.SetID(args[1])

			updated, err := query.Update(cmd.Context(), record)
			if err != nil {
				return err
			}

			if reportValidationErrors(updated) {
				return fmt.Errorf("%s %s was not updated", args[0], args[1])
			}

			return renderRecord(updated)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute as key=value (repeatable)")
	cmd.Flags().StringVar(&rawJSON, "json", "", "attributes as a raw JSON object")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete RESOURCE ID",
		Short: "Delete a resource element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := resourceQuery(args[0])
			if err != nil {
				return err
			}

			record := activerest.NewModel()
			record.SetID(args[1])

			deleted, err := query.Delete(cmd.Context(), record)
			if err != nil {
				return err
			}

			if !deleted {
				return fmt.Errorf("%s %s was not deleted", args[0], args[1])
			}

			fmt.Printf("Deleted %s %s\n", args[0], args[1])

			return nil
		},
	}
}

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	var where []string

	cmd := &cobra.Command{
		Use:   "count RESOURCE",
		Short: "Count resource elements",
		Long:  "Discover how many elements match, without fetching the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := resourceQuery(args[0])
			if err != nil {
				return err
			}

			conditions, err := parseConditions(where)
			if err != nil {
				return err
			}

			count, err := query.Where(conditions).Count(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(count)

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "filter condition as key=value (repeatable)")

	return cmd
}

// recordFromFlags builds the request record from --set pairs and the
// optional raw JSON object. Explicit --set pairs win on conflicts.
func recordFromFlags(sets []string, rawJSON string) (*activerest.Model, error) {
	record := activerest.NewModel()

	if rawJSON != "" {
		var attrs map[string]interface{}
		if err := json.Unmarshal([]byte(rawJSON), &attrs); err != nil {
			return nil, fmt.Errorf("invalid --json value: %w", err)
		}

		record.SetAttributes(attrs)
	}

	pairs, err := parseConditions(sets)
	if err != nil {
		return nil, err
	}

	record.SetAttributes(pairs)

	return record, nil
}
