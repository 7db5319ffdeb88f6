// Package commands implements the benita-log CLI commands.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/benita-io/benita-go/pkg/log"
	"github.com/benita-io/benita-go/pkg/sensor"
)

// FilterFlags holds the textual filter criteria shared by all commands.
// Empty fields match everything.
type FilterFlags struct {
	ConnID    string
	Kind      string
	Role      string
	Layer     string
	Direction string
	Category  string
	TimeStart string
	TimeEnd   string
}

// Build converts the flags into a log.Filter.
func (f FilterFlags) Build() (log.Filter, error) {
	filter := log.Filter{ConnectionID: f.ConnID}

	if f.Kind != "" {
		k, err := sensor.ParseKind(f.Kind)
		if err != nil {
			return filter, err
		}
		filter.Kind = &k
	}
	if f.Role != "" {
		r, err := parseRole(f.Role)
		if err != nil {
			return filter, err
		}
		filter.Role = &r
	}
	if f.Layer != "" {
		l, err := parseLayer(f.Layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}
	if f.Direction != "" {
		d, err := parseDirection(f.Direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if f.Category != "" {
		c, err := parseCategory(f.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	if f.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, f.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if f.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, f.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	return filter, nil
}

func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "service":
		return log.LayerService, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, wire, or service)", s)
	}
}

func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, state, or error)", s)
	}
}

func parseRole(s string) (log.Role, error) {
	switch strings.ToLower(s) {
	case "req", "requester":
		return log.RoleRequester, nil
	case "rep", "responder":
		return log.RoleResponder, nil
	default:
		return 0, fmt.Errorf("invalid role: %s (must be requester or responder)", s)
	}
}

// eachEvent calls fn for every event in path that matches filter.
func eachEvent(path string, filter log.Filter, fn func(log.Event) error) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	return reader.Each(fn)
}
