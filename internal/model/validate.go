package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPriority    = "priority"
	FieldStatus      = "status"
	FieldCategory    = "category"
	FieldDueDate     = "dueDate"
	FieldIsNote      = "isNote"
)

// fieldOrder is the order fields are checked in; the first failure is reported.
var fieldOrder = []string{
	FieldTitle,
	FieldDescription,
	FieldPriority,
	FieldStatus,
	FieldCategory,
	FieldDueDate,
	FieldIsNote,
}

var validate = validator.New()

// ValidationError names the first offending field of a payload.
// Field is empty when the body itself is not a JSON object.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// ValidateCreate checks a creation payload and fills in column defaults.
// Unknown keys, id and timestamps included, are ignored.
func ValidateCreate(body []byte) (TaskInput, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return TaskInput{}, err
	}

	in := TaskInput{
		Priority: PriorityMedium,
		Status:   StatusTodo,
		Category: DefaultCategory,
	}
	for _, name := range fieldOrder {
		raw, ok := fields[name]
		if !ok {
			if name == FieldTitle {
				return TaskInput{}, &ValidationError{Field: name, Reason: "required"}
			}
			continue
		}
		if err := assignInput(&in, name, raw); err != nil {
			return TaskInput{}, err
		}
	}
	return in, nil
}

// ValidateUpdate checks a partial payload; only present fields are validated and set.
func ValidateUpdate(body []byte) (TaskPatch, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return TaskPatch{}, err
	}

	var patch TaskPatch
	for _, name := range fieldOrder {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if err := assignPatch(&patch, name, raw); err != nil {
			return TaskPatch{}, err
		}
	}
	return patch, nil
}

func assignInput(in *TaskInput, name string, raw json.RawMessage) error {
	var reason string
	switch name {
	case FieldTitle:
		in.Title, reason = parseTitle(raw)
	case FieldDescription:
		in.Description, reason = parseNullableString(raw)
	case FieldPriority:
		in.Priority, reason = parsePriority(raw)
	case FieldStatus:
		in.Status, reason = parseStatus(raw)
	case FieldCategory:
		in.Category, reason = parseString(raw)
	case FieldDueDate:
		in.DueDate, reason = parseNullableTime(raw)
	case FieldIsNote:
		in.IsNote, reason = parseNullableBool(raw)
	}
	if reason != "" {
		return &ValidationError{Field: name, Reason: reason}
	}
	return nil
}

func assignPatch(p *TaskPatch, name string, raw json.RawMessage) error {
	var reason string
	switch name {
	case FieldTitle:
		var v string
		v, reason = parseTitle(raw)
		p.Title = Some(v)
	case FieldDescription:
		var v *string
		v, reason = parseNullableString(raw)
		p.Description = Some(v)
	case FieldPriority:
		var v Priority
		v, reason = parsePriority(raw)
		p.Priority = Some(v)
	case FieldStatus:
		var v Status
		v, reason = parseStatus(raw)
		p.Status = Some(v)
	case FieldCategory:
		var v string
		v, reason = parseString(raw)
		p.Category = Some(v)
	case FieldDueDate:
		var v *time.Time
		v, reason = parseNullableTime(raw)
		p.DueDate = Some(v)
	case FieldIsNote:
		var v bool
		v, reason = parseNullableBool(raw)
		p.IsNote = Some(v)
	}
	if reason != "" {
		return &ValidationError{Field: name, Reason: reason}
	}
	return nil
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ValidationError{Reason: "expected object"}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, &ValidationError{Reason: "malformed JSON"}
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func parseString(raw json.RawMessage) (string, string) {
	if isNull(raw) {
		return "", "expected string, received null"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", "expected string"
	}
	return s, ""
}

func parseTitle(raw json.RawMessage) (string, string) {
	s, reason := parseString(raw)
	if reason != "" {
		return "", reason
	}
	if err := validate.Var(s, "required"); err != nil {
		return "", "must not be empty"
	}
	return s, ""
}

func parseNullableString(raw json.RawMessage) (*string, string) {
	if isNull(raw) {
		return nil, ""
	}
	s, reason := parseString(raw)
	if reason != "" {
		return nil, reason
	}
	return &s, ""
}

func parsePriority(raw json.RawMessage) (Priority, string) {
	s, reason := parseString(raw)
	if reason != "" {
		return "", reason
	}
	if err := validate.Var(s, "oneof=low medium high"); err != nil {
		return "", "invalid enum value, expected low | medium | high"
	}
	return Priority(s), ""
}

func parseStatus(raw json.RawMessage) (Status, string) {
	s, reason := parseString(raw)
	if reason != "" {
		return "", reason
	}
	if err := validate.Var(s, "oneof=todo in-progress done"); err != nil {
		return "", "invalid enum value, expected todo | in-progress | done"
	}
	return Status(s), ""
}

// dateLayouts accepts full RFC 3339 timestamps and bare calendar dates.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02"}

func parseNullableTime(raw json.RawMessage) (*time.Time, string) {
	if isNull(raw) {
		return nil, ""
	}
	s, reason := parseString(raw)
	if reason != "" {
		return nil, "expected date string"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, ""
		}
	}
	return nil, "invalid date"
}

func parseNullableBool(raw json.RawMessage) (bool, string) {
	if isNull(raw) {
		return false, ""
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, "expected boolean"
	}
	return b, ""
}
