package wizard

import (
	"fmt"
	"strings"
)

// FieldErrors maps a field name to a human-readable message.
type FieldErrors map[string]string

// Rule checks a draft and records any failures into errs.
type Rule interface {
	Check(f Fields, errs FieldErrors)
}

// RuleFunc adapts a plain function to Rule.
type RuleFunc func(f Fields, errs FieldErrors)

func (fn RuleFunc) Check(f Fields, errs FieldErrors) { fn(f, errs) }

// Condition gates a conditional rule.
type Condition func(f Fields) bool

// FieldEquals is true when the field's text value equals want (case-insensitive).
func FieldEquals(field, want string) Condition {
	return func(f Fields) bool {
		return strings.EqualFold(strings.TrimSpace(f.String(field)), want)
	}
}

// FieldTrue is true when the field holds a true boolean.
func FieldTrue(field string) Condition {
	return func(f Fields) bool { return f.Bool(field) }
}

// Required demands every listed field be non-blank.
func Required(fields ...string) Rule {
	return RuleFunc(func(f Fields, errs FieldErrors) {
		for _, name := range fields {
			if !f.Filled(name) {
				addError(errs, name, "is required")
			}
		}
	})
}

// RequiredIf demands the listed fields only when cond holds.
func RequiredIf(cond Condition, fields ...string) Rule {
	inner := Required(fields...)
	return RuleFunc(func(f Fields, errs FieldErrors) {
		if cond(f) {
			inner.Check(f, errs)
		}
	})
}

// AnyOf demands at least one of the listed fields be non-blank. The error is
// reported against every listed field.
func AnyOf(fields ...string) Rule {
	return RuleFunc(func(f Fields, errs FieldErrors) {
		for _, name := range fields {
			if f.Filled(name) {
				return
			}
		}
		msg := fmt.Sprintf("one of %s is required", strings.Join(fields, ", "))
		for _, name := range fields {
			addError(errs, name, msg)
		}
	})
}

// OneOf restricts a filled field to an enumerated set.
func OneOf(field string, allowed ...string) Rule {
	return RuleFunc(func(f Fields, errs FieldErrors) {
		if !f.Filled(field) {
			return
		}
		v := strings.TrimSpace(f.String(field))
		for _, a := range allowed {
			if v == a {
				return
			}
		}
		addError(errs, field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	})
}

// addError keeps the first message per field.
func addError(errs FieldErrors, field, msg string) {
	if _, exists := errs[field]; !exists {
		errs[field] = msg
	}
}

// Check runs rules against f and returns the collected errors, or nil.
func Check(f Fields, rules ...Rule) FieldErrors {
	errs := FieldErrors{}
	for _, r := range rules {
		r.Check(f, errs)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
