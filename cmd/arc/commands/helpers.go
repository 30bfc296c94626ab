package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/activerest-io/activerest/internal/constants"
	"github.com/activerest-io/activerest/pkg/activerest"
)

// ErrNoAPIEndpoint is returned when no endpoint is configured at all.
var ErrNoAPIEndpoint = errors.New("no API endpoint configured; pass --api or run 'arc login'")

// buildClient constructs the API client from the effective configuration.
func buildClient() (*activerest.Client, error) {
	api := viper.GetString("api")
	if api == "" {
		return nil, ErrNoAPIEndpoint
	}

	config := &activerest.Config{
		BaseURL:  api,
		APIToken: viper.GetString("token"),
	}

	if viper.GetBool("verbose") {
		config.Debug = true
		config.Logger = newCLILogger()
	}

	if viper.GetBool("cache") {
		config.Cache = activerest.DefaultCacheConfig()
	}

	return activerest.New(config)
}

// buildSchema assembles the schema for a resource, overlaying any
// per-resource settings from the config file under resources.<name>.
func buildSchema(resource string) *activerest.Schema {
	prefix := "resources." + resource + "."

	schema := &activerest.Schema{
		Resource:           resource,
		PrimaryKey:         viper.GetString(prefix + "primary_key"),
		CollectionEnvelope: viper.GetString(prefix + "collection_envelope"),
		PaginationEnvelope: viper.GetString(prefix + "pagination_envelope"),
		LimitParam:         viper.GetString(prefix + "limit_param"),
		OffsetParam:        viper.GetString(prefix + "offset_param"),
		FieldsParam:        viper.GetString(prefix + "fields_param"),
		ContentType:        viper.GetString(prefix + "content_type"),
	}

	if endpoint := viper.GetString(prefix + "api"); endpoint != "" {
		schema.APIURL = endpoint
	}

	if keys := viper.GetStringMapString(prefix + "pagination_keys"); len(keys) > 0 {
		schema.PaginationKeys = keys
	}

	return schema
}

// resourceQuery binds a client and a schema into a model query.
func resourceQuery(resource string) (*activerest.Query[*activerest.Model], error) {
	client, err := buildClient()
	if err != nil {
		return nil, err
	}

	return activerest.ModelQuery(client, buildSchema(resource))
}

// parseConditions turns key=value pairs into a condition map.
func parseConditions(pairs []string) (map[string]interface{}, error) {
	conditions := make(map[string]interface{}, len(pairs))

	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", constants.KeyValueSplitParts)
		if len(parts) != constants.KeyValueSplitParts || parts[0] == "" {
			return nil, fmt.Errorf("invalid condition %q, expected key=value", pair)
		}

		conditions[parts[0]] = parts[1]
	}

	return conditions, nil
}

// recordAttributes flattens records into attribute maps for encoding.
func recordAttributes(records []*activerest.Model) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.Attributes())
	}

	return rows
}

// attributeColumns computes a stable column order over a record set: "id"
// first when present, everything else alphabetical.
func attributeColumns(records []*activerest.Model) []string {
	seen := make(map[string]bool)

	for _, record := range records {
		for name := range record.Attributes() {
			seen[name] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for name := range seen {
		if name != "id" {
			columns = append(columns, name)
		}
	}

	sort.Strings(columns)

	if seen["id"] {
		columns = append([]string{"id"}, columns...)
	}

	return columns
}

func formatCell(value interface{}) string {
	if value == nil {
		return ""
	}

	return fmt.Sprint(value)
}

// renderRecords prints a record set in the selected output format.
func renderRecords(records []*activerest.Model) error {
	output := viper.GetString("output")
	switch output {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		return encoder.Encode(recordAttributes(records))
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)

		return encoder.Encode(recordAttributes(records))
	default:
		columns := attributeColumns(records)
		header := make([]any, 0, len(columns))

		for _, column := range columns {
			header = append(header, column)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header(header...)

		for _, record := range records {
			cells := make([]any, 0, len(columns))
			for _, column := range columns {
				cells = append(cells, formatCell(record.Attribute(column)))
			}

			_ = table.Append(cells...)
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// renderRecord prints a single record, as a property table by default.
func renderRecord(record *activerest.Model) error {
	output := viper.GetString("output")
	switch output {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		return encoder.Encode(record.Attributes())
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)

		return encoder.Encode(record.Attributes())
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Attribute", "Value")

		for _, column := range attributeColumns([]*activerest.Model{record}) {
			_ = table.Append(column, formatCell(record.Attribute(column)))
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// reportValidationErrors prints field errors a write left on the record
// and reports whether any were present.
func reportValidationErrors(record *activerest.Model) bool {
	if !record.HasErrors() {
		return false
	}

	fmt.Fprintln(os.Stderr, "Validation failed:")

	for field, messages := range record.Errors() {
		for _, message := range messages {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, message)
		}
	}

	return true
}
