package tabula

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors. Every typed error below matches exactly one of
// them through errors.Is.
var (
	// ErrDuplicateColumn is returned when a column name is registered twice.
	ErrDuplicateColumn = errors.New("tabula: duplicate column")

	// ErrPrimaryKeyAlreadySet is returned when a table is given a second primary key.
	ErrPrimaryKeyAlreadySet = errors.New("tabula: primary key already set")

	// ErrConflictingBinding is returned when two bindings target the same property.
	ErrConflictingBinding = errors.New("tabula: conflicting binding")

	// ErrAlreadyBound is returned when a bound column is transformed.
	ErrAlreadyBound = errors.New("tabula: column already bound")

	// ErrUnsupportedAlias is returned when a table that cannot be aliased
	// is used where an aliased copy is required.
	ErrUnsupportedAlias = errors.New("tabula: aliasing not supported")

	// ErrCircularReference is returned when a reference binding closes a cycle.
	ErrCircularReference = errors.New("tabula: circular reference")

	// ErrUnknownColumn is returned when a column lookup fails.
	ErrUnknownColumn = errors.New("tabula: unknown column")

	// ErrMaterialization is returned when a row cannot be turned into an entity.
	ErrMaterialization = errors.New("tabula: materialization failed")

	// ErrEmptyResult is returned when a query that must produce exactly one
	// row produced none.
	ErrEmptyResult = errors.New("tabula: empty result")

	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("tabula: entity not found")
)

// DuplicateColumnError is returned by column registration.
type DuplicateColumnError struct {
	Table  string
	Column string
}

// Error returns the error string.
func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("tabula: duplicate column %q in table %q", e.Column, e.Table)
}

// Is reports whether the target error matches ErrDuplicateColumn.
func (e *DuplicateColumnError) Is(err error) bool {
	return err == ErrDuplicateColumn
}

// NewDuplicateColumnError returns a new DuplicateColumnError.
func NewDuplicateColumnError(table, column string) *DuplicateColumnError {
	return &DuplicateColumnError{Table: table, Column: column}
}

// PrimaryKeyAlreadySetError is returned when marking a second primary key.
type PrimaryKeyAlreadySetError struct {
	Table    string
	Existing string // Column that already holds the primary key
	Column   string // Column that was rejected
}

// Error returns the error string.
func (e *PrimaryKeyAlreadySetError) Error() string {
	return fmt.Sprintf("tabula: table %q already has primary key %q, cannot mark %q",
		e.Table, e.Existing, e.Column)
}

// Is reports whether the target error matches ErrPrimaryKeyAlreadySet.
func (e *PrimaryKeyAlreadySetError) Is(err error) bool {
	return err == ErrPrimaryKeyAlreadySet
}

// NewPrimaryKeyAlreadySetError returns a new PrimaryKeyAlreadySetError.
func NewPrimaryKeyAlreadySetError(table, existing, column string) *PrimaryKeyAlreadySetError {
	return &PrimaryKeyAlreadySetError{Table: table, Existing: existing, Column: column}
}

// ConflictingBindingError names the two columns bound to the same property.
type ConflictingBindingError struct {
	Table   string
	Column  string // Column receiving the new binding
	Other   string // Column already holding an equal binding
	Binding string // Description of the binding
}

// Error returns the error string.
func (e *ConflictingBindingError) Error() string {
	return fmt.Sprintf("tabula: columns %q and %q of table %q are bound to the same property: %s",
		e.Column, e.Other, e.Table, e.Binding)
}

// Is reports whether the target error matches ErrConflictingBinding.
func (e *ConflictingBindingError) Is(err error) bool {
	return err == ErrConflictingBinding
}

// NewConflictingBindingError returns a new ConflictingBindingError.
func NewConflictingBindingError(table, column, other, binding string) *ConflictingBindingError {
	return &ConflictingBindingError{Table: table, Column: column, Other: other, Binding: binding}
}

// AlreadyBoundError is returned when transforming a column that has bindings.
type AlreadyBoundError struct {
	Table  string
	Column string
}

// Error returns the error string.
func (e *AlreadyBoundError) Error() string {
	return fmt.Sprintf("tabula: column %q of table %q is already bound, transform it before binding", e.Column, e.Table)
}

// Is reports whether the target error matches ErrAlreadyBound.
func (e *AlreadyBoundError) Is(err error) bool {
	return err == ErrAlreadyBound
}

// NewAlreadyBoundError returns a new AlreadyBoundError.
func NewAlreadyBoundError(table, column string) *AlreadyBoundError {
	return &AlreadyBoundError{Table: table, Column: column}
}

// UnsupportedAliasError is returned when a table value has no aliasing capability.
type UnsupportedAliasError struct {
	Table string
}

// Error returns the error string.
func (e *UnsupportedAliasError) Error() string {
	return fmt.Sprintf("tabula: table %q does not support aliasing", e.Table)
}

// Is reports whether the target error matches ErrUnsupportedAlias.
func (e *UnsupportedAliasError) Is(err error) bool {
	return err == ErrUnsupportedAlias
}

// NewUnsupportedAliasError returns a new UnsupportedAliasError.
func NewUnsupportedAliasError(table string) *UnsupportedAliasError {
	return &UnsupportedAliasError{Table: table}
}

// CircularReferenceError carries the reference route that closed the cycle.
type CircularReferenceError struct {
	Table string
	Path  []string
}

// Error returns the error string.
func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("tabula: circular reference detected, current table: %q, reference route: [%s]",
		e.Table, strings.Join(e.Path, " -> "))
}

// Is reports whether the target error matches ErrCircularReference.
func (e *CircularReferenceError) Is(err error) bool {
	return err == ErrCircularReference
}

// NewCircularReferenceError returns a new CircularReferenceError.
// The path is copied.
func NewCircularReferenceError(table string, path []string) *CircularReferenceError {
	return &CircularReferenceError{Table: table, Path: append([]string(nil), path...)}
}

// IsCircularReference returns true if the error is a CircularReferenceError.
func IsCircularReference(err error) bool {
	if err == nil {
		return false
	}
	var e *CircularReferenceError
	return errors.As(err, &e)
}

// UnknownColumnError is returned by column lookups.
type UnknownColumnError struct {
	Table  string
	Column string
}

// Error returns the error string.
func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("tabula: unknown column %q in table %q", e.Column, e.Table)
}

// Is reports whether the target error matches ErrUnknownColumn.
func (e *UnknownColumnError) Is(err error) bool {
	return err == ErrUnknownColumn
}

// NewUnknownColumnError returns a new UnknownColumnError.
func NewUnknownColumnError(table, column string) *UnknownColumnError {
	return &UnknownColumnError{Table: table, Column: column}
}

// MaterializationError wraps a failure to build an entity from a row.
type MaterializationError struct {
	Table  string
	Column string
	Err    error
}

// Error returns the error string.
func (e *MaterializationError) Error() string {
	return fmt.Sprintf("tabula: materializing %s.%s: %v", e.Table, e.Column, e.Err)
}

// Is reports whether the target error matches ErrMaterialization.
func (e *MaterializationError) Is(err error) bool {
	return err == ErrMaterialization
}

// Unwrap returns the underlying error.
func (e *MaterializationError) Unwrap() error {
	return e.Err
}

// NewMaterializationError returns a new MaterializationError.
func NewMaterializationError(table, column string, err error) *MaterializationError {
	return &MaterializationError{Table: table, Column: column, Err: err}
}

// IsMaterializationError returns true if the error is a MaterializationError.
func IsMaterializationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MaterializationError
	return errors.As(err, &e)
}

// EmptyResultError is returned when a count query yields no row. The query
// engine is expected to return a row for every count query, including a
// zero count for an empty table, so this signals a broken engine.
type EmptyResultError struct {
	Table string
	SQL   string
}

// Error returns the error string.
func (e *EmptyResultError) Error() string {
	if e.SQL != "" {
		return fmt.Sprintf("tabula: no result row for %s count query: %s", e.Table, e.SQL)
	}
	return fmt.Sprintf("tabula: no result row for %s count query", e.Table)
}

// Is reports whether the target error matches ErrEmptyResult.
func (e *EmptyResultError) Is(err error) bool {
	return err == ErrEmptyResult
}

// NewEmptyResultError returns a new EmptyResultError.
func NewEmptyResultError(table, sql string) *EmptyResultError {
	return &EmptyResultError{Table: table, SQL: sql}
}

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tabula: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// NewNotFoundError returns a new NotFoundError for the given table.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// QueryError wraps a query error with additional context.
type QueryError struct {
	Table string // Table being queried
	Op    string // Operation (e.g., "select", "count", "aggregate")
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("tabula: querying %s (%s): %v", e.Table, e.Op, e.Err)
	}
	return fmt.Sprintf("tabula: querying %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(table, op string, err error) *QueryError {
	return &QueryError{Table: table, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}
