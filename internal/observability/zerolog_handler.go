package observability

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// zerologHandler is a slog.Handler that writes through a zerolog logger.
type zerologHandler struct {
	zl     zerolog.Logger
	level  slog.Level
	attrs  []slog.Attr
	prefix string
}

func newZerologHandler(zl zerolog.Logger, level slog.Level) *zerologHandler {
	return &zerologHandler{zl: zl, level: level}
}

func (h *zerologHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level
}

func (h *zerologHandler) Handle(_ context.Context, r slog.Record) error {
	var ev *zerolog.Event
	switch {
	case r.Level < slog.LevelInfo:
		ev = h.zl.Debug()
	case r.Level < slog.LevelWarn:
		ev = h.zl.Info()
	case r.Level < slog.LevelError:
		ev = h.zl.Warn()
	default:
		ev = h.zl.Error()
	}

	for _, a := range h.attrs {
		ev = addAttr(ev, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		ev = addAttr(ev, h.prefix, a)
		return true
	})

	ev.Msg(r.Message)
	return nil
}

func (h *zerologHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	cp.attrs = append(cp.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		cp.attrs = append(cp.attrs, a)
	}
	return &cp
}

func (h *zerologHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	cp := *h
	cp.prefix = h.prefix + name + "."
	return &cp
}

func addAttr(ev *zerolog.Event, prefix string, a slog.Attr) *zerolog.Event {
	a.Value = a.Value.Resolve()
	key := prefix + a.Key
	switch a.Value.Kind() {
	case slog.KindString:
		return ev.Str(key, a.Value.String())
	case slog.KindInt64:
		return ev.Int64(key, a.Value.Int64())
	case slog.KindUint64:
		return ev.Uint64(key, a.Value.Uint64())
	case slog.KindFloat64:
		return ev.Float64(key, a.Value.Float64())
	case slog.KindBool:
		return ev.Bool(key, a.Value.Bool())
	case slog.KindDuration:
		return ev.Dur(key, a.Value.Duration())
	case slog.KindTime:
		return ev.Time(key, a.Value.Time())
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			ev = addAttr(ev, key+".", ga)
		}
		return ev
	default:
		if err, ok := a.Value.Any().(error); ok {
			return ev.AnErr(key, err)
		}
		return ev.Interface(key, a.Value.Any())
	}
}
