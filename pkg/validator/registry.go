package validator

import (
	"context"
	"fmt"
	"sort"

	"github.com/sentinelhaus/confd/pkg/document"
)

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Check validates one section value, writing findings into the report with
// paths relative to the document root.
type Check func(ctx context.Context, section string, value any, report *Report) error

// Registry runs registered checks per section. Sections without checks pass
// untouched; the engine treats section contents opaquely and so does the
// registry.
type Registry struct {
	checks map[string][]Check
}

func NewRegistry() *Registry {
	return &Registry{
		checks: make(map[string][]Check),
	}
}

func (r *Registry) Register(section string, check Check) {
	r.checks[section] = append(r.checks[section], check)
}

func (r *Registry) Validate(ctx context.Context, doc document.Document) (*Report, error) {
	report := NewReport()

	sections := make([]string, 0, len(doc))
	for section := range doc {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	for _, section := range sections {
		for _, check := range r.checks[section] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := check(ctx, section, doc[section], report); err != nil {
				return nil, fmt.Errorf("check for section %s: %w", section, err)
			}
		}
	}

	return report, nil
}
