package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/karolswdev/jirapro/internal/config"
	"github.com/karolswdev/jirapro/internal/issuecreate"
	"github.com/karolswdev/jirapro/internal/jira"
	"github.com/karolswdev/jirapro/internal/oidc"
)

// outputFormat reads the persistent --output flag.
func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	return strings.ToLower(format)
}

// writeOutput renders data as JSON or YAML, or hands off to text for any other format.
func writeOutput(out io.Writer, format string, data any, text func(io.Writer) error) error {
	switch format {
	case "json":
		jsonData, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result as JSON: %w", err)
		}
		fmt.Fprintln(out, string(jsonData))
		return nil
	case "yaml":
		yamlData, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to format result as YAML: %w", err)
		}
		fmt.Fprint(out, string(yamlData))
		return nil
	default:
		return text(out)
	}
}

// writeRaw renders a Jira body that is relayed without a Go model. Bodies that are not
// JSON are written unchanged whatever the format.
func writeRaw(out io.Writer, format string, body json.RawMessage, text func(io.Writer) error) error {
	if !json.Valid(body) {
		fmt.Fprintln(out, string(body))
		return nil
	}
	switch format {
	case "json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err != nil {
			return fmt.Errorf("failed to format result as JSON: %w", err)
		}
		fmt.Fprintln(out, buf.String())
		return nil
	case "yaml":
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			return fmt.Errorf("failed to format result as YAML: %w", err)
		}
		return writeOutput(out, format, data, nil)
	default:
		return text(out)
	}
}

// writeSuggestions prints a suggestion list in the requested format.
func writeSuggestions(out io.Writer, format string, suggestions []issuecreate.Suggestion) error {
	if suggestions == nil {
		suggestions = []issuecreate.Suggestion{}
	}
	if format == "tsv" {
		fmt.Fprintln(out, strings.Join([]string{"label", "value", "hint", "icon"}, "\t"))
		for _, s := range suggestions {
			values := []string{s.Label, fmt.Sprintf("%v", s.Value), "", ""}
			if s.Hint != nil {
				values[2] = *s.Hint
			}
			if s.Icon != nil {
				values[3] = s.Icon.URL
			}
			for i, v := range values {
				values[i] = sanitizeTSV(v)
			}
			fmt.Fprintln(out, strings.Join(values, "\t"))
		}
		return nil
	}
	return writeOutput(out, format, suggestions, func(w io.Writer) error {
		if len(suggestions) == 0 {
			fmt.Fprintln(w, "No suggestions found.")
			return nil
		}
		for _, s := range suggestions {
			line := fmt.Sprintf("- %s (%v)", s.Label, s.Value)
			if s.Hint != nil {
				line += " - " + *s.Hint
			}
			fmt.Fprintln(w, line)
		}
		return nil
	})
}

func sanitizeTSV(v string) string {
	v = strings.ReplaceAll(v, "\t", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.ReplaceAll(v, "\r", " ")
}

// printErrorHint explains a failure on stderr in terms the user can act on.
func printErrorHint(w io.Writer, err error) {
	switch {
	case errors.Is(err, jira.ErrUnknownInstance):
		fmt.Fprintf(w, "Error: %v\n", err)
		fmt.Fprintln(w, "Run 'jpro instances' to list the configured Jira instances.")
	case errors.Is(err, jira.ErrConfiguration):
		fmt.Fprintf(w, "Configuration error: %v\n", err)
		fmt.Fprintln(w, "Check the servers section of config.yaml ('jpro config locate').")
	case errors.Is(err, jira.ErrRequestFailed):
		fmt.Fprintf(w, "Error connecting to Jira: %v\n", err)
		fmt.Fprintln(w, "Please ensure the instance URL is correct and reachable.")
	case errors.Is(err, jira.ErrMalformedPaginatedResponse), errors.Is(err, jira.ErrMalformedJiraResponse):
		fmt.Fprintf(w, "Jira returned an unexpected response: %v\n", err)
	case errors.Is(err, issuecreate.ErrUnexpectedReporterField):
		fmt.Fprintln(w, "Error: the issue payload must not set fields.reporter; it is filled in for you.")
	case errors.Is(err, issuecreate.ErrInvalidInput):
		fmt.Fprintf(w, "Invalid issue payload: %v\n", err)
	case errors.Is(err, oidc.ErrUnknownConfiguration):
		fmt.Fprintf(w, "Error: %v\n", err)
		fmt.Fprintln(w, "Check the oidc_clients section of config.yaml.")
	case errors.Is(err, oidc.ErrExchange):
		fmt.Fprintf(w, "The OAuth provider rejected the authorization: %v\n", err)
	case errors.Is(err, config.ErrConfigRead), errors.Is(err, config.ErrConfigParse), errors.Is(err, config.ErrServerInvalid):
		fmt.Fprintln(w, "Error reading or parsing config.yaml. Please check its format and permissions.")
		fmt.Fprintln(w, "You might need to run 'jpro config init'.")
	case errors.Is(err, config.ErrConfigDirCreate), errors.Is(err, config.ErrConfigDirStat), errors.Is(err, config.ErrConfigDirNotDir):
		fmt.Fprintln(w, "Error accessing configuration directory. Please check permissions.")
	default:
		fmt.Fprintf(w, "An unexpected error occurred: %v\n", err)
	}
}
