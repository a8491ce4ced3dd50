package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/hay-kot/criterio"

	"taskmate/internal/model"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	minNameLen        = 2
	maxNameLen        = 50
	minPasswordLen    = 6
)

// validTitle checks a task title is present and within limits after trimming.
func validTitle(raw string) error {
	title := strings.TrimSpace(raw)
	if title == "" {
		return fmt.Errorf("task title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return fmt.Errorf("title cannot exceed %d characters", maxTitleLen)
	}
	return nil
}

func validDescription(raw string) error {
	if utf8.RuneCountInString(strings.TrimSpace(raw)) > maxDescriptionLen {
		return fmt.Errorf("description cannot exceed %d characters", maxDescriptionLen)
	}
	return nil
}

func validPriority(raw string) error {
	_, err := model.ParsePriority(raw)
	return err
}

func validStatus(raw string) error {
	_, err := model.ParseStatus(raw)
	return err
}

func validFrequency(raw string) error {
	if _, err := model.ParseFrequency(raw); err != nil {
		return fmt.Errorf("recurring tasks need a frequency of daily, weekly or monthly")
	}
	return nil
}

func validName(raw string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(raw)); n < minNameLen || n > maxNameLen {
		return fmt.Errorf("name must be between %d and %d characters", minNameLen, maxNameLen)
	}
	return nil
}

func validEmail(raw string) error {
	email := strings.TrimSpace(raw)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, ".") {
		return fmt.Errorf("a valid email is required")
	}
	return nil
}

func validPassword(raw string) error {
	if len(raw) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

// optional runs fn only when the field was supplied.
func optional(field string, value *string, fn func(string) error) error {
	if value == nil {
		return nil
	}
	return criterio.Run(field, *value, fn)
}

// nonEmpty runs fn only for a non-empty value; empty means "use the default".
func nonEmpty(field, value string, fn func(string) error) error {
	if value == "" {
		return nil
	}
	return criterio.Run(field, value, fn)
}

// recurrence checks that a recurring task carries a known frequency and is
// not itself a generated instance.
func recurrence(automated, recurring bool, freq string) error {
	if !recurring {
		return nil
	}
	if automated {
		return criterio.NewFieldErrors("isRecurring", fmt.Errorf("automated tasks cannot recur"))
	}
	return criterio.Run("recurringFrequency", freq, validFrequency)
}

func validateTaskInput(in TaskInput) error {
	return criterio.ValidateStruct(
		criterio.Run("title", in.Title, validTitle),
		criterio.Run("description", in.Description, validDescription),
		nonEmpty("priority", in.Priority, validPriority),
		nonEmpty("status", in.Status, validStatus),
		recurrence(in.IsAutomated, in.IsRecurring, in.RecurringFrequency),
	)
}

func validateTaskPatch(p TaskPatch) error {
	return criterio.ValidateStruct(
		optional("title", p.Title, validTitle),
		optional("description", p.Description, validDescription),
		optional("priority", p.Priority, validPriority),
		optional("status", p.Status, validStatus),
	)
}

func validateRegistration(name, email, password string) error {
	return criterio.ValidateStruct(
		criterio.Run("name", name, validName),
		criterio.Run("email", email, validEmail),
		criterio.Run("password", password, validPassword),
	)
}
