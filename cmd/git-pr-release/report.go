package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/roivaz/git-pr-release/internal/release"
)

var reportFormats = map[string]bool{"": true, "text": true, "json": true, "yaml": true}

func validateReportFormat(format string) error {
	if !reportFormats[strings.ToLower(format)] {
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
	return nil
}

func writeReport(w io.Writer, format string, result release.Result) error {
	switch strings.ToLower(format) {
	case "", "text":
		return writeText(w, result)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		out, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

func writeText(w io.Writer, result release.Result) error {
	if result.Action == release.ActionDryRun {
		if _, err := fmt.Fprintf(w, "%s\n", result.Description); err != nil {
			return err
		}
	}
	if result.PullRequest == nil {
		return nil
	}
	_, err := fmt.Fprintln(w, result.PullRequest.HTMLURL)
	return err
}
