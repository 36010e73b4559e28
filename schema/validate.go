package schema

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates that entities built by the table change shape.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	write := func(title string, errs []*ValidationError) {
		if len(errs) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, e := range errs {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) merge(o *ValidationResult) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// ValidateTable validates a single table definition. Tables without primary
// key and unbound columns are reported as warnings; definitions that make
// materialization fail are errors.
func ValidateTable(i Interface) *ValidationResult {
	t := i.Schema()
	result := &ValidationResult{}
	if err := t.Err(); err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   t.name,
			Message: err.Error(),
		})
	}
	if pk := t.PrimaryKey(); pk == nil {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.name,
			Message: "table has no primary key",
		})
	}
	for _, c := range t.columns {
		if len(c.bindings) == 0 {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   t.name,
				Column:  c.name,
				Message: "column is not bound to any property",
			})
		}
	}
	_ = t.references(func(c *Column, rb ReferenceBinding) error {
		ref := rb.Table.Schema()
		pk := ref.PrimaryKey()
		if pk == nil {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.name,
				Column:  c.name,
				Message: fmt.Sprintf("referenced table %q has no primary key", ref.name),
			})
			return nil
		}
		if _, err := primaryKeyPath(pk); err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.name,
				Column:  c.name,
				Message: fmt.Sprintf("referenced table %q: %v", ref.name, err),
			})
		}
		return nil
	})
	return result
}

// ValidateSchema validates all tables of a schema and the references
// between them.
func ValidateSchema(tables []Interface) *ValidationResult {
	result := &ValidationResult{}
	names := make(map[string]bool, len(tables))
	for _, i := range tables {
		t := i.Schema()
		if names[t.name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.name,
				Message: "duplicate table name",
			})
		}
		names[t.name] = true
		result.merge(ValidateTable(t))
	}
	for _, i := range tables {
		t := i.Schema()
		_ = t.references(func(c *Column, rb ReferenceBinding) error {
			if name := rb.Table.Schema().name; !names[name] {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:   t.name,
					Column:  c.name,
					Message: fmt.Sprintf("references table %q outside the schema", name),
				})
			}
			return nil
		})
	}
	return result
}

// ValidateOption configures ValidateDiff.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn bool
	allowDropTable  bool
}

// AllowDropColumn reports dropped columns as warnings instead of errors.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable reports dropped tables as warnings instead of errors.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// ValidateDiff validates the changes between two versions of a schema.
// Dropped tables and columns, and columns whose bindings or types changed,
// alter the shape of materialized entities.
//
// Example:
//
//	result := schema.ValidateDiff(current, desired)
//	if result.HasBreakingChanges() {
//	    log.Fatal("Breaking changes detected:", result)
//	}
func ValidateDiff(current, desired []Interface, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	desiredMap := make(map[string]*Table, len(desired))
	for _, i := range desired {
		desiredMap[i.Schema().name] = i.Schema()
	}
	for _, i := range current {
		cur := i.Schema()
		des, ok := desiredMap[cur.name]
		if !ok {
			report(result, cfg.allowDropTable, &ValidationError{
				Table:    cur.name,
				Message:  "table will be dropped",
				Breaking: true,
			})
			continue
		}
		validateTableDiff(cur, des, cfg, result)
	}
	return result
}

func validateTableDiff(current, desired *Table, cfg *validateConfig, result *ValidationResult) {
	for _, cur := range current.columns {
		des, err := desired.Lookup(cur.name)
		if err != nil {
			report(result, cfg.allowDropColumn, &ValidationError{
				Table:    current.name,
				Column:   cur.name,
				Message:  "column will be dropped",
				Breaking: true,
			})
			continue
		}
		if cur.typ.Name() != des.typ.Name() {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.name,
				Column:  cur.name,
				Message: fmt.Sprintf("column type changing from %s to %s", cur.typ.Name(), des.typ.Name()),
			})
		}
		if from, to := bindingNames(cur), bindingNames(des); !slices.Equal(from, to) {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:    current.name,
				Column:   cur.name,
				Message:  fmt.Sprintf("bindings changing from %v to %v", from, to),
				Breaking: true,
			})
		}
	}
	if cur, des := current.PrimaryKey(), desired.PrimaryKey(); cur != nil && (des == nil || des.name != cur.name) {
		result.Errors = append(result.Errors, &ValidationError{
			Table:    current.name,
			Column:   cur.name,
			Message:  "primary key will change",
			Breaking: true,
		})
	}
}

func bindingNames(c *Column) []string {
	names := make([]string, len(c.bindings))
	for i, b := range c.bindings {
		names[i] = b.String()
	}
	return names
}

func report(result *ValidationResult, allowed bool, err *ValidationError) {
	if allowed {
		result.Warnings = append(result.Warnings, err)
	} else {
		result.Errors = append(result.Errors, err)
	}
}
