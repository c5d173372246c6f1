package forms

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// State is the value of one section. It is never mutated; Reduce returns a
// new State.
type State struct {
	values   map[string]string
	baseline map[string]string
}

// NewState returns a clean state holding values.
func NewState(values map[string]string) State {
	v := maps.Clone(values)
	if v == nil {
		v = map[string]string{}
	}
	return State{values: v, baseline: maps.Clone(v)}
}

// Value returns the stored value for key, or "" when unset.
func (s State) Value(key string) string {
	return s.values[key]
}

// Effective returns the stored value or the field default when unset.
func (s State) Effective(f Field) string {
	if v, ok := s.values[f.Key]; ok && v != "" {
		return v
	}
	return f.Default
}

// Values returns a copy of the stored values.
func (s State) Values() map[string]string {
	return maps.Clone(s.values)
}

// Dirty reports whether any value differs from the last load or save.
func (s State) Dirty() bool {
	return !equalValues(s.values, s.baseline)
}

// DirtyKeys lists changed keys in sorted order.
func (s State) DirtyKeys() []string {
	var keys []string
	for k, v := range s.values {
		if s.baseline[k] != v {
			keys = append(keys, k)
		}
	}
	for k := range s.baseline {
		if _, ok := s.values[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

func equalValues(a, b map[string]string) bool {
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	for k, v := range b {
		if a[k] != v {
			return false
		}
	}
	return true
}

// Event is an input to Reduce.
type Event interface{ event() }

// SetField replaces the value of Key.
type SetField struct {
	Key   string
	Value string
}

// ToggleField flips a bool field or advances a choice field.
type ToggleField struct{ Key string }

// ResetField restores Key to its last loaded or saved value.
type ResetField struct{ Key string }

// Load replaces the whole state, typically after reading config.yml.
type Load struct{ Values map[string]string }

// MarkSaved makes the current values the new baseline.
type MarkSaved struct{}

// Restore replaces the values but keeps the baseline, so dirtiness is still
// measured against the last load or save. Undo and redo use it.
type Restore struct{ Values map[string]string }

func (SetField) event()    {}
func (ToggleField) event() {}
func (ResetField) event()  {}
func (Load) event()        {}
func (MarkSaved) event()   {}
func (Restore) event()     {}

// Reduce applies evt to st. Events naming keys the section does not define
// leave the state unchanged.
func Reduce(sec Section, st State, evt Event) State {
	switch e := evt.(type) {
	case SetField:
		if _, ok := sec.Field(e.Key); !ok || st.values[e.Key] == e.Value {
			return st
		}
		return st.with(e.Key, e.Value)
	case ToggleField:
		f, ok := sec.Field(e.Key)
		if !ok {
			return st
		}
		switch f.Kind {
		case KindBool:
			return st.with(f.Key, cycle(boolChoices, st.Effective(f)))
		case KindChoice:
			return st.with(f.Key, cycle(f.Choices, st.Effective(f)))
		}
		return st
	case ResetField:
		if _, ok := sec.Field(e.Key); !ok {
			return st
		}
		next := State{values: maps.Clone(st.values), baseline: st.baseline}
		if v, ok := st.baseline[e.Key]; ok {
			next.values[e.Key] = v
		} else {
			delete(next.values, e.Key)
		}
		return next
	case Load:
		return NewState(e.Values)
	case MarkSaved:
		return State{values: st.values, baseline: maps.Clone(st.values)}
	case Restore:
		values := map[string]string{}
		for k, v := range e.Values {
			if _, ok := sec.Field(k); ok {
				values[k] = v
			}
		}
		return State{values: values, baseline: st.baseline}
	}
	return st
}

func (s State) with(key, value string) State {
	next := State{values: maps.Clone(s.values), baseline: s.baseline}
	if next.values == nil {
		next.values = map[string]string{}
	}
	next.values[key] = value
	return next
}

func cycle(choices []string, current string) string {
	if len(choices) == 0 {
		return current
	}
	i := slices.Index(choices, current)
	return choices[(i+1)%len(choices)]
}

// Validate checks values against field kinds. The result maps field keys to
// messages and is empty when the state is valid.
func Validate(sec Section, st State) map[string]string {
	errs := map[string]string{}
	for _, f := range sec.Fields {
		v := strings.TrimSpace(st.values[f.Key])
		if v == "" {
			continue
		}
		switch f.Kind {
		case KindInt:
			if _, err := strconv.Atoi(v); err != nil {
				errs[f.Key] = "must be a whole number"
			}
		case KindBool:
			if _, err := strconv.ParseBool(v); err != nil {
				errs[f.Key] = "must be true or false"
			}
		case KindChoice:
			if !slices.Contains(f.Choices, v) {
				errs[f.Key] = fmt.Sprintf("must be one of %s", strings.Join(f.Choices, ", "))
			}
		case KindURL:
			u, err := url.Parse(v)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs[f.Key] = "must be an http(s) URL"
			}
		}
	}
	return errs
}
