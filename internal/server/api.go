package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/vk/trackertools/internal/metrics"
	"github.com/vk/trackertools/internal/registry"
	"github.com/vk/trackertools/internal/snapshot"
	"github.com/vk/trackertools/internal/store"
	"github.com/vk/trackertools/internal/value"
)

// socket.io event names.
const (
	EventFields     = "fields"
	EventSnapshot   = "snapshot"
	EventSetField   = "set_field"
	EventNudgeField = "nudge_field"
)

// Error codes reported to clients.
const (
	CodeUnknownField = "unknown_field"
	CodeReadOnly     = "read_only"
	CodeDerivation   = "derivation_error"
	CodeInvalid      = "invalid"
)

// FieldInfo is the client-facing metadata of one field.
type FieldInfo struct {
	ID        string      `json:"id"`
	Label     string      `json:"label,omitempty"`
	Units     string      `json:"units,omitempty"`
	Initial   value.Value `json:"initial"`
	Min       *float64    `json:"min,omitempty"`
	Max       *float64    `json:"max,omitempty"`
	Step      float64     `json:"step"`
	LargeStep float64     `json:"large_step"`
	ReadOnly  bool        `json:"read_only"`
}

// SectionInfo groups field metadata the way clients lay fields out.
type SectionInfo struct {
	Index  int         `json:"index"`
	Name   string      `json:"name"`
	Fields []FieldInfo `json:"fields"`
}

// Entry is one field value on the live channel. Entries travel as an
// ordered list so that declaration order survives decoding.
type Entry struct {
	ID      string      `json:"id"`
	Value   value.Value `json:"value"`
	Display string      `json:"display"`
}

// SetFieldRequest is the payload of a set_field event.
type SetFieldRequest struct {
	ID    string      `json:"id"`
	Value value.Value `json:"value"`
}

// NudgeFieldRequest is the payload of a nudge_field event. Steps counts
// increments of the field's step, or of its large step when Large is set,
// and is negative to decrease.
type NudgeFieldRequest struct {
	ID    string `json:"id"`
	Steps int    `json:"steps"`
	Large bool   `json:"large,omitempty"`
}

// SetFieldResponse acknowledges a set_field or nudge_field event.
type SetFieldResponse struct {
	OK       bool    `json:"ok"`
	Snapshot []Entry `json:"snapshot,omitempty"`
	Error    string  `json:"error,omitempty"`
	Code     string  `json:"code,omitempty"`
}

// Sections describes the registry for clients.
func Sections(reg *registry.Registry) []SectionInfo {
	groups := reg.Grouped()
	out := make([]SectionInfo, 0, len(groups))
	for _, g := range groups {
		info := SectionInfo{Index: g.Index, Name: g.Name, Fields: make([]FieldInfo, 0, len(g.Entries))}
		for _, e := range g.Entries {
			d := e.Definition
			fi := FieldInfo{
				ID:        e.ID,
				Label:     d.Label,
				Units:     d.Units,
				Initial:   d.Initial,
				Step:      d.EffectiveStep(),
				LargeStep: d.EffectiveLargeStep(),
				ReadOnly:  d.ReadOnly,
			}
			if d.Bounds != nil {
				lo, hi := d.Bounds.Min, d.Bounds.Max
				fi.Min, fi.Max = &lo, &hi
			}
			info.Fields = append(info.Fields, fi)
		}
		out = append(out, info)
	}
	return out
}

// Entries lists the snapshot in declaration order with display text.
func Entries(reg *registry.Registry, snap snapshot.Snapshot) []Entry {
	out := make([]Entry, 0, snap.Len())
	snap.Range(func(id string, v value.Value) bool {
		display := v.Text()
		if d, err := reg.Get(id); err == nil {
			if s, err := d.FormatValue(v); err == nil {
				display = s
			}
		}
		out = append(out, Entry{ID: id, Value: v, Display: display})
		return true
	})
	return out
}

// wholeSteps reads a decoded JSON step count.
func wholeSteps(v any) (int, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("steps must be a number, got %T", v)
	}
	if f == 0 || f != math.Trunc(f) || math.Abs(f) > maxSteps {
		return 0, fmt.Errorf("steps must be a non-zero whole number up to %d, got %v", maxSteps, f)
	}
	return int(f), nil
}

const maxSteps = 1000

// classify maps an edit error to an HTTP status and a client error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrUnknownField):
		return http.StatusNotFound, CodeUnknownField
	case errors.Is(err, registry.ErrReadOnly):
		return http.StatusForbidden, CodeReadOnly
	case errors.Is(err, store.ErrDerivation):
		return http.StatusUnprocessableEntity, CodeDerivation
	default:
		return http.StatusBadRequest, CodeInvalid
	}
}

// outcome maps an edit result to the metrics outcome label.
func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	switch _, code := classify(err); code {
	case CodeUnknownField:
		return metrics.OutcomeUnknown
	case CodeReadOnly:
		return metrics.OutcomeReadOnly
	case CodeDerivation:
		return metrics.OutcomeDerivation
	default:
		return metrics.OutcomeInvalid
	}
}
