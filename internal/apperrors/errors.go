// Package apperrors defines the error taxonomy shared by the import, posting and
// ventilation components.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotSignedIn is returned by operations that require an authenticated user.
var ErrNotSignedIn = errors.New("user must be signed in")

// ParseError describes a malformed value in an imported statement. Parse errors
// never abort a file; they are collected as warnings next to the parsed drafts.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: failed to parse %s='%s': %v",
		e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TotalMismatch carries both sides of a failed ventilation sum check.
type TotalMismatch struct {
	Ventilated decimal.Decimal
	Credit     decimal.Decimal
}

// ValidationError rejects a ventilation before anything is written.
type ValidationError struct {
	MovementID      string
	NoRows          bool
	IncompleteRows  []int
	Mismatch        *TotalMismatch
	UnknownTenants  []string
	MissingProperty []string
	MissingCredit   bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ventilation of movement %s rejected: %s",
		e.MovementID, strings.Join(e.Problems(), "; "))
}

// Problems lists every failed precondition as a human readable message.
func (e *ValidationError) Problems() []string {
	var problems []string
	if e.MissingCredit {
		problems = append(problems, "movement has no credit amount to ventilate")
	}
	if e.NoRows {
		problems = append(problems, "ventilation has no rows")
	}
	for _, row := range e.IncompleteRows {
		problems = append(problems, fmt.Sprintf("row %d needs a tenant and an amount", row+1))
	}
	if e.Mismatch != nil {
		problems = append(problems, fmt.Sprintf("total ventilated (%s €) differs from movement credit (%s €)",
			e.Mismatch.Ventilated.StringFixed(2), e.Mismatch.Credit.StringFixed(2)))
	}
	for _, tenantID := range e.UnknownTenants {
		problems = append(problems, fmt.Sprintf("tenant %s does not exist", tenantID))
	}
	for _, tenantID := range e.MissingProperty {
		problems = append(problems, fmt.Sprintf("tenant %s has no property", tenantID))
	}
	return problems
}

// HasProblems reports whether at least one precondition failed.
func (e *ValidationError) HasProblems() bool {
	return e.MissingCredit || e.NoRows || len(e.IncompleteRows) > 0 || e.Mismatch != nil ||
		len(e.UnknownTenants) > 0 || len(e.MissingProperty) > 0
}

// StorageError wraps a failed read or write against the data store.
type StorageError struct {
	Op    string
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// LookupMiss reports that a referenced record does not exist.
type LookupMiss struct {
	Kind string
	Key  string
}

func (e *LookupMiss) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// IsLookupMiss reports whether err is or wraps a LookupMiss.
func IsLookupMiss(err error) bool {
	var miss *LookupMiss
	return errors.As(err, &miss)
}
