package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/providerkit/providerkit/internal/output"
)

type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

// addOutputFlags registers --output and --out on cmd.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "table", "Output format: table, json, yaml, markdown")
	cmd.Flags().String("out", "", "Write output to a file instead of stdout ('-' for stdout)")
}

func resolveOutputFormat(cmd *cobra.Command) (output.Format, error) {
	value, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", err
	}
	return output.ParseFormat(value)
}

// openSink returns the --out file, or cmd's stdout when --out is empty or "-".
func openSink(cmd *cobra.Command) (*outputSink, error) {
	path, err := cmd.Flags().GetString("out")
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		return &outputSink{writer: cmd.OutOrStdout(), close: func() error { return nil }, path: "-"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(trimmed), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(trimmed)
	if err != nil {
		return nil, err
	}
	return &outputSink{writer: file, close: file.Close, path: trimmed}, nil
}

// renderTo writes v to the command's sink in the requested format.
func renderTo(cmd *cobra.Command, v any) (err error) {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	sink, err := openSink(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sink.close(); err == nil {
			err = closeErr
		}
	}()
	return output.Render(sink.writer, format, v)
}
