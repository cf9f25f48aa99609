// Package validator defines the external validation collaborator. The engine
// submits the whole draft and receives per-field findings keyed by dotted
// path; it never interprets the rules. The registry implementation hosts
// per-section checks in-process, a remote implementation would speak to a
// validation service instead.
package validator

import (
	"context"

	"github.com/sentinelhaus/confd/pkg/document"
)

// Report is one completed validation round. Keys are dotted field paths such
// as "mqtt.broker_port".
type Report struct {
	Errors   map[string]string
	Warnings map[string]string
}

func NewReport() *Report {
	return &Report{
		Errors:   make(map[string]string),
		Warnings: make(map[string]string),
	}
}

func (r *Report) Errorf(path, format string, args ...any) {
	r.Errors[path] = sprintf(format, args...)
}

func (r *Report) Warnf(path, format string, args ...any) {
	r.Warnings[path] = sprintf(format, args...)
}

type Validator interface {
	Validate(ctx context.Context, doc document.Document) (*Report, error)
}

// Func adapts a function to the Validator interface.
type Func func(ctx context.Context, doc document.Document) (*Report, error)

func (f Func) Validate(ctx context.Context, doc document.Document) (*Report, error) {
	return f(ctx, doc)
}
