// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

// Package form decodes and validates submitted form fields against a JSON
// Schema reflected from a Go struct.
//
// Constraints are declared with jsonschema struct tags:
//
//	type LoginForm struct {
//		Email    string `json:"email" jsonschema:"format=email,minLength=3,maxLength=255"`
//		Password string `json:"password" jsonschema:"minLength=8,maxLength=100"`
//	}
//
// Every field is required. Only the first violation is reported: fields are
// ranked by declaration order and, within a field, by keyword (required, type,
// format, minLength, maxLength). Cross-field checks run through Refiner once
// every field is individually valid.
package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"

	invopop "github.com/invopop/jsonschema"
	"github.com/samber/oops"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrValidation is wrapped by every *FieldError.
var ErrValidation = errors.New("validation failed")

// FieldError describes the first violation found in a submission.
type FieldError struct {
	Field   string
	Keyword string
	Message string
}

// Error returns the user-facing message.
func (e *FieldError) Error() string {
	return e.Message
}

// Unwrap returns ErrValidation.
func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// Refiner is implemented by forms with cross-field rules.
type Refiner interface {
	Refine() *FieldError
}

// Messenger is implemented by forms that override default messages. Keys are
// "<field>.<keyword>", e.g. "name.minLength".
type Messenger interface {
	Messages() map[string]string
}

var keywordRank = map[string]int{
	"required":  0,
	"type":      1,
	"format":    2,
	"minLength": 3,
	"maxLength": 4,
}

// Schema validates submissions for the form type T.
type Schema[T any] struct {
	compiled *jsonschema.Schema
	fields   []string
	limits   map[string]*invopop.Schema
	messages map[string]string
}

// Compile reflects T into a JSON Schema and compiles it.
func Compile[T any]() (*Schema[T], error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, oops.Code("FORM_INVALID_TYPE").Errorf("form type must be a struct, got %v", typ)
	}

	r := invopop.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	doc := r.Reflect(&zero)

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, oops.Code("FORM_SCHEMA_FAILED").With("form", typ.Name()).Wrap(err)
	}
	var schemaData any
	if err := json.Unmarshal(raw, &schemaData); err != nil {
		return nil, oops.Code("FORM_SCHEMA_FAILED").With("form", typ.Name()).Wrap(err)
	}

	resource := typ.Name() + ".json"
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(resource, schemaData); err != nil {
		return nil, oops.Code("FORM_SCHEMA_FAILED").With("form", typ.Name()).Wrap(err)
	}
	compiled, err := c.Compile(resource)
	if err != nil {
		return nil, oops.Code("FORM_SCHEMA_FAILED").With("form", typ.Name()).Wrap(err)
	}

	s := &Schema[T]{
		compiled: compiled,
		limits:   make(map[string]*invopop.Schema),
		messages: map[string]string{},
	}
	if doc.Properties != nil {
		for pair := doc.Properties.Oldest(); pair != nil; pair = pair.Next() {
			s.fields = append(s.fields, pair.Key)
			s.limits[pair.Key] = pair.Value
		}
	}
	if m, ok := any(&zero).(Messenger); ok {
		for k, v := range m.Messages() {
			s.messages[k] = v
		}
	}
	return s, nil
}

// MustCompile is like Compile but panics on error. Use for package-level forms.
func MustCompile[T any]() *Schema[T] {
	s, err := Compile[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the form's field names in declaration order.
func (s *Schema[T]) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Parse validates values and decodes them into T. A validation failure is
// returned as *FieldError; any other error is internal.
func (s *Schema[T]) Parse(values url.Values) (T, error) {
	var out T

	instance := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		if vs, ok := values[f]; ok && len(vs) > 0 {
			instance[f] = vs[0]
		}
	}

	if err := s.compiled.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return out, oops.Code("FORM_VALIDATE_FAILED").Wrap(err)
		}
		return out, s.firstError(ve, instance)
	}

	raw, err := json.Marshal(instance)
	if err != nil {
		return out, oops.Code("FORM_DECODE_FAILED").Wrap(err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, oops.Code("FORM_DECODE_FAILED").Wrap(err)
	}

	if r, ok := any(&out).(Refiner); ok {
		if fe := r.Refine(); fe != nil {
			return out, fe
		}
	}
	return out, nil
}

func (s *Schema[T]) firstError(root *jsonschema.ValidationError, instance map[string]any) *FieldError {
	var found []*FieldError
	for _, leaf := range leaves(root, nil) {
		keyword := ""
		if path := leaf.ErrorKind.KeywordPath(); len(path) > 0 {
			keyword = path[len(path)-1]
		}

		if keyword == "required" && len(leaf.InstanceLocation) == 0 {
			for _, f := range s.fields {
				if _, ok := instance[f]; !ok {
					found = append(found, s.fieldError(f, keyword))
				}
			}
			continue
		}

		field := ""
		if len(leaf.InstanceLocation) > 0 {
			field = leaf.InstanceLocation[0]
		}
		found = append(found, s.fieldError(field, keyword))
	}

	if len(found) == 0 {
		return &FieldError{Message: "Invalid input"}
	}

	sort.SliceStable(found, func(i, j int) bool {
		fi, fj := s.fieldIndex(found[i].Field), s.fieldIndex(found[j].Field)
		if fi != fj {
			return fi < fj
		}
		return rank(found[i].Keyword) < rank(found[j].Keyword)
	})
	return found[0]
}

func (s *Schema[T]) fieldError(field, keyword string) *FieldError {
	return &FieldError{
		Field:   field,
		Keyword: keyword,
		Message: s.message(field, keyword),
	}
}

func (s *Schema[T]) message(field, keyword string) string {
	if msg, ok := s.messages[field+"."+keyword]; ok {
		return msg
	}

	limits := s.limits[field]
	switch keyword {
	case "required":
		return "Required"
	case "type":
		return "Expected string"
	case "format":
		if limits != nil && limits.Format == "email" {
			return "Invalid email"
		}
		return "Invalid format"
	case "minLength":
		if limits != nil && limits.MinLength != nil {
			return fmt.Sprintf("String must contain at least %d character(s)", *limits.MinLength)
		}
	case "maxLength":
		if limits != nil && limits.MaxLength != nil {
			return fmt.Sprintf("String must contain at most %d character(s)", *limits.MaxLength)
		}
	}
	return "Invalid input"
}

func (s *Schema[T]) fieldIndex(field string) int {
	for i, f := range s.fields {
		if f == field {
			return i
		}
	}
	return len(s.fields)
}

func rank(keyword string) int {
	if r, ok := keywordRank[keyword]; ok {
		return r
	}
	return len(keywordRank)
}

func leaves(ve *jsonschema.ValidationError, out []*jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return append(out, ve)
	}
	for _, cause := range ve.Causes {
		out = leaves(cause, out)
	}
	return out
}
