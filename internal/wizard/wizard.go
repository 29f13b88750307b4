// Package wizard implements multi-step form state: a flat draft record, a
// current step, per-step validation and a single-shot finalize.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrInFlight         = errors.New("finalize already in progress")
	ErrAlreadyFinalized = errors.New("draft already finalized")
	ErrNotFinalStep     = errors.New("draft is not on its final step")
	ErrFieldLocked      = errors.New("field cannot be changed")
	ErrUnknownField     = errors.New("unknown field")
)

// ValidationError carries per-field messages for a rejected transition.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// Step is one screen of a flow.
type Step struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
	Rules  []Rule   `json:"-"`
}

// Definition describes a flow: its ordered steps, the rules that gate
// finalize and any fields the user may not edit.
type Definition struct {
	Flow          string `json:"flow"`
	Steps         []Step `json:"steps"`
	FinalizeRules []Rule `json:"-"`
	// FinalizeFromAnyStep allows finalize before reaching the last step
	// (tabbed forms rather than linear wizards).
	FinalizeFromAnyStep bool     `json:"finalize_from_any_step"`
	Locked              []string `json:"locked,omitempty"`
	// Hidden fields are accepted but not rendered on any step.
	Hidden []string `json:"-"`
}

// PersistFunc writes a finalized draft to its store.
type PersistFunc func(ctx context.Context, f Fields) error

// State is the serialisable draft.
type State struct {
	Flow        string      `json:"flow"`
	CurrentStep int         `json:"current_step"`
	TotalSteps  int         `json:"total_steps"`
	Fields      Fields      `json:"fields"`
	Errors      FieldErrors `json:"errors,omitempty"`
	Submitting  bool        `json:"submitting"`
	Completed   bool        `json:"completed"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// New starts a draft on step 1 seeded with initial values.
func (d *Definition) New(initial Fields) *State {
	fields := Fields{}
	for k, v := range initial {
		if norm, err := normalize(v); err == nil {
			fields[k] = norm
		}
	}
	return &State{
		Flow:        d.Flow,
		CurrentStep: 1,
		TotalSteps:  len(d.Steps),
		Fields:      fields,
		UpdatedAt:   time.Now().UTC(),
	}
}

// StepAt returns the 1-based step.
func (d *Definition) StepAt(n int) Step {
	if n < 1 {
		n = 1
	}
	if n > len(d.Steps) {
		n = len(d.Steps)
	}
	return d.Steps[n-1]
}

// Advance validates the current step and moves forward, capped at the last
// step. On failure the step is unchanged and the errors are recorded.
func (d *Definition) Advance(s *State) error {
	if errs := Check(s.Fields, d.StepAt(s.CurrentStep).Rules...); errs != nil {
		s.Errors = errs
		return &ValidationError{Fields: errs}
	}
	s.Errors = nil
	if s.CurrentStep < len(d.Steps) {
		s.CurrentStep++
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Retreat moves back one step, floored at 1. It never validates.
func (d *Definition) Retreat(s *State) {
	if s.CurrentStep > 1 {
		s.CurrentStep--
	}
	s.UpdatedAt = time.Now().UTC()
}

// SetField overwrites one field and clears any error recorded against it.
func (d *Definition) SetField(s *State, name string, value []byte) error {
	for _, locked := range d.Locked {
		if locked == name {
			return fmt.Errorf("%w: %s", ErrFieldLocked, name)
		}
	}
	if !d.knows(name) {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	norm, err := normalize(value)
	if err != nil {
		return err
	}
	if s.Fields == nil {
		s.Fields = Fields{}
	}
	s.Fields[name] = norm
	delete(s.Errors, name)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Finalize checks the finalize rules and calls persist exactly once. A failed
// persist leaves the draft untouched so the user can retry; nothing is
// retried automatically.
func (d *Definition) Finalize(ctx context.Context, s *State, persist PersistFunc) error {
	if s.Submitting {
		return ErrInFlight
	}
	if s.Completed {
		return ErrAlreadyFinalized
	}
	if !d.FinalizeFromAnyStep && s.CurrentStep != len(d.Steps) {
		return ErrNotFinalStep
	}
	if errs := Check(s.Fields, d.FinalizeRules...); errs != nil {
		s.Errors = errs
		return &ValidationError{Fields: errs}
	}

	s.Submitting = true
	err := persist(ctx, s.Fields.Clone())
	s.Submitting = false
	if err != nil {
		return err
	}

	s.Errors = nil
	s.Completed = true
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (d *Definition) knows(name string) bool {
	declared := false
	for _, step := range d.Steps {
		for _, f := range step.Fields {
			declared = true
			if f == name {
				return true
			}
		}
	}
	for _, f := range d.Hidden {
		if f == name {
			return true
		}
	}
	// A definition without declared fields accepts anything.
	return !declared
}
