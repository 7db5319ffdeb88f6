package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/benita-io/benita-go/pkg/log"
)

// RunExport converts the events of path matching filter to format (jsonl or
// csv), writing to the file output or to stdout when output is empty.
func RunExport(path, format, output string, filter log.Filter, stdout io.Writer) error {
	var write func(io.Writer) error
	switch format {
	case "jsonl":
		write = func(w io.Writer) error { return exportJSONL(path, filter, w) }
	case "csv":
		write = func(w io.Writer) error { return exportCSV(path, filter, w) }
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	if output == "" {
		return write(stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportJSONL(path string, filter log.Filter, w io.Writer) error {
	encoder := json.NewEncoder(w)
	return eachEvent(path, filter, func(event log.Event) error {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

var csvHeader = []string{
	"timestamp", "connection_id", "direction", "role", "layer", "category",
	"kind", "type", "message_id", "command", "status", "text",
}

func exportCSV(path string, filter log.Filter, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	err := eachEvent(path, filter, func(event log.Event) error {
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(event log.Event) []string {
	eventType := "unknown"
	var msgID, cmd, status, text string
	switch {
	case event.Frame != nil:
		eventType = "frame"
	case event.Message != nil:
		eventType = event.Message.Type.String()
		msgID = strconv.FormatUint(uint64(event.Message.MessageID), 10)
		cmd = event.Message.Command
		text = event.Message.Text
		if event.Message.Status != nil {
			status = event.Message.Status.String()
		}
	case event.StateChange != nil:
		eventType = "state"
		text = event.StateChange.NewState
	case event.Error != nil:
		eventType = "error"
		text = event.Error.Message
	}

	kind := ""
	if event.Kind.IsValid() {
		kind = event.Kind.String()
	}

	return []string{
		event.Timestamp.UTC().Format(timestampLayout),
		event.ConnectionID,
		event.Direction.String(),
		event.LocalRole.String(),
		event.Layer.String(),
		event.Category.String(),
		kind,
		eventType,
		msgID,
		cmd,
		status,
		text,
	}
}
