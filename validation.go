package record

import (
	"fmt"
	"sort"
)

// BaseField is the Errors key for problems that concern the record as a whole
const BaseField = "base"

// Errors collects validation messages by field.
type Errors map[string][]string

// Add appends message to field
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// On returns the messages recorded for field
func (e Errors) On(field string) []string {
	return e[field]
}

// Empty reports whether no message was recorded
func (e Errors) Empty() bool {
	return e.Len() == 0
}

// Len returns the number of messages across all fields
func (e Errors) Len() int {
	n := 0
	for _, messages := range e {
		n += len(messages)
	}
	return n
}

// Fields returns the fields with messages, sorted
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for field, messages := range e {
		if len(messages) > 0 {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)
	return fields
}

// FullMessages returns "<field> <message>" for every message, fields sorted.
// Messages on BaseField are returned as is.
func (e Errors) FullMessages() []string {
	var out []string
	for _, field := range e.Fields() {
		for _, message := range e[field] {
			if field == BaseField {
				out = append(out, message)
				continue
			}
			out = append(out, fmt.Sprintf("%s %s", field, message))
		}
	}
	return out
}

// Clear removes every message
func (e Errors) Clear() {
	for field := range e {
		delete(e, field)
	}
}
