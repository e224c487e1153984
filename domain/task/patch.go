package task

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// Payload field names.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldDeadline    = "deadline"
	FieldAssignee    = "assignee"
)

// Patch is a partial update. Fields records every key the caller sent, including keys whose
// value was null and keys this service does not recognise; only recognised keys are applied.
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Assignee    *string    `json:"assignee,omitempty"`
	Fields      []string   `json:"fields"`
}

// DecodePatch parses a JSON object into a Patch, remembering which keys were present.
// Recognised fields are matched by exact key; "Title" is an unknown key, not the title.
func DecodePatch(body []byte) (Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Patch{}, fmt.Errorf("%w: body must be a JSON object", ErrInvalidInput)
	}

	var p Patch
	for _, f := range []struct {
		name string
		dst  any
	}{
		{FieldTitle, &p.Title},
		{FieldDescription, &p.Description},
		{FieldStatus, &p.Status},
		{FieldDeadline, &p.Deadline},
		{FieldAssignee, &p.Assignee},
	} {
		value, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, f.dst); err != nil {
			return Patch{}, fmt.Errorf("%w: %s: %v", ErrInvalidInput, f.name, err)
		}
	}

	p.Fields = make([]string, 0, len(raw))
	for k := range raw {
		p.Fields = append(p.Fields, k)
	}
	sort.Strings(p.Fields)
	return p, nil
}

var knownFields = []string{FieldTitle, FieldDescription, FieldStatus, FieldDeadline, FieldAssignee}

// misspelledField returns the recognised field that key matches only when case is ignored.
func misspelledField(key string) (string, bool) {
	for _, f := range knownFields {
		if key != f && strings.EqualFold(key, f) {
			return f, true
		}
	}
	return "", false
}

// Has reports whether the caller sent field.
func (p Patch) Has(field string) bool {
	return slices.Contains(p.Fields, field)
}

// NewAssignee returns the assignee the patch sets. ok is false when the patch leaves the
// assignee alone or clears it.
func (p Patch) NewAssignee() (id string, ok bool) {
	if !p.Has(FieldAssignee) || p.Assignee == nil {
		return "", false
	}
	return *p.Assignee, true
}

// Validate checks the values of the recognised fields that are present.
// A key that differs from a recognised field only in case is rejected rather than ignored.
func (p Patch) Validate() error {
	for _, f := range p.Fields {
		if want, ok := misspelledField(f); ok {
			return fmt.Errorf("%w: unknown field %q, did you mean %q", ErrInvalidInput, f, want)
		}
	}
	if p.Has(FieldTitle) {
		if p.Title == nil {
			return fmt.Errorf("%w: title may not be null", ErrInvalidInput)
		}
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Has(FieldDescription) && p.Description == nil {
		return fmt.Errorf("%w: description may not be null", ErrInvalidInput)
	}
	if p.Has(FieldStatus) {
		if p.Status == nil {
			return fmt.Errorf("%w: status may not be null", ErrInvalidInput)
		}
		if _, err := ParseStatus(string(*p.Status)); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes the present recognised fields onto t and returns the names of the struct
// fields it changed. created_by and the timestamps are never touched.
func (p Patch) Apply(t *Task) []string {
	var changed []string
	if p.Has(FieldTitle) && p.Title != nil {
		t.Title = *p.Title
		changed = append(changed, "Title")
	}
	if p.Has(FieldDescription) && p.Description != nil {
		t.Description = *p.Description
		changed = append(changed, "Description")
	}
	if p.Has(FieldStatus) && p.Status != nil {
		t.Status = *p.Status
		changed = append(changed, "Status")
	}
	if p.Has(FieldDeadline) {
		t.Deadline = p.Deadline
		changed = append(changed, "Deadline")
	}
	if p.Has(FieldAssignee) {
		t.AssigneeID = p.Assignee
		changed = append(changed, "AssigneeID")
	}
	return changed
}
