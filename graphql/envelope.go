package graphql

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Variables holds named GraphQL variables
type Variables map[string]any

// Request is the JSON body POSTed to the application endpoint
type Request struct {
	Query     string    `json:"query"`
	Variables Variables `json:"variables"`
}

// NewRequest builds a request, never sending null variables
func NewRequest(document string, vars Variables) Request {
	if vars == nil {
		vars = Variables{}
	}
	return Request{Query: document, Variables: vars}
}

// ErrorLocation points into the request document
type ErrorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Error is a single entry in the response's errors array
type Error struct {
	Message   string          `json:"message"`
	Locations []ErrorLocation `json:"locations,omitempty"`
	Path      []any           `json:"path,omitempty"`
}

// Response is the GraphQL response envelope
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []Error         `json:"errors,omitempty"`
}

// HasErrors reports whether the service returned errors
func (r *Response) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// Decode unmarshals the data object into v
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return fmt.Errorf("response has no data")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Field returns a single top-level field of the data object, nil when absent
func (r *Response) Field(name string) json.RawMessage {
	if r == nil || len(r.Data) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Data, &fields); err != nil {
		return nil
	}
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return nil
	}
	return raw
}

// Messages joins all error messages
func (r *Response) Messages() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
