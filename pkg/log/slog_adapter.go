package log

import (
	"context"
	"log/slog"
	"strings"
)

// SlogAdapter mirrors protocol events into an slog.Logger. Error events are
// logged at warn level, everything else at debug.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter returns an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes one record for event. Payload fields are grouped under frame,
// envelope, state or err.
func (a *SlogAdapter) Log(event Event) {
	level := slog.LevelDebug
	if event.Category == CategoryError {
		level = slog.LevelWarn
	}
	ctx := context.Background()
	if !a.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, 7)
	attrs = append(attrs,
		slog.String("conn", event.ConnectionID),
		slog.String("dir", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("role", event.LocalRole.String()),
	)
	if event.Kind.IsValid() {
		attrs = append(attrs, slog.String("kind", event.Kind.String()))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("peer", event.RemoteAddr))
	}
	if p, ok := payloadAttr(event); ok {
		attrs = append(attrs, p)
	}

	a.logger.LogAttrs(ctx, level, "protocol "+strings.ToLower(event.Category.String()), attrs...)
}

func payloadAttr(event Event) (slog.Attr, bool) {
	switch {
	case event.Frame != nil:
		return slog.Group("frame",
			slog.Int("size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		), true
	case event.Message != nil:
		return slog.Attr{Key: "envelope", Value: slog.GroupValue(messageAttrs(event.Message)...)}, true
	case event.StateChange != nil:
		sc := event.StateChange
		attrs := []any{slog.String("entity", sc.Entity.String())}
		if sc.OldState != "" {
			attrs = append(attrs, slog.String("from", sc.OldState))
		}
		attrs = append(attrs, slog.String("to", sc.NewState))
		if sc.Reason != "" {
			attrs = append(attrs, slog.String("reason", sc.Reason))
		}
		return slog.Group("state", attrs...), true
	case event.Error != nil:
		e := event.Error
		attrs := []any{slog.String("layer", e.Layer.String()), slog.String("message", e.Message)}
		if e.Context != "" {
			attrs = append(attrs, slog.String("context", e.Context))
		}
		if e.Code != nil {
			attrs = append(attrs, slog.Int("code", *e.Code))
		}
		return slog.Group("err", attrs...), true
	}
	return slog.Attr{}, false
}

func messageAttrs(m *MessageEvent) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("type", m.Type.String()),
		slog.Uint64("id", uint64(m.MessageID)),
	}
	if m.Command != "" {
		attrs = append(attrs, slog.String("command", m.Command))
	}
	if m.Status != nil {
		attrs = append(attrs, slog.String("status", m.Status.String()))
	}
	if m.Text != "" {
		attrs = append(attrs, slog.String("text", m.Text))
	}
	if m.ProcessingTime != nil {
		attrs = append(attrs, slog.Duration("took", *m.ProcessingTime))
	}
	return attrs
}

var _ Logger = (*SlogAdapter)(nil)
