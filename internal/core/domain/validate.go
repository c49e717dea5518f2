package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
	minNameLength     = 2
	maxNameLength     = 50
	minTitleLength    = 3
	maxTitleLength    = 100
	maxDescription    = 1000
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return Validation("Please enter a valid email.")
	}
	return nil
}

func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < minNameLength {
		return Validation(fmt.Sprintf("Name must be at least %d characters.", minNameLength))
	}
	if n > maxNameLength {
		return Validation(fmt.Sprintf("Name cannot exceed %d characters.", maxNameLength))
	}
	return nil
}

// ValidatePassword enforces length and the uppercase+digit rule.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return Validation(fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return Validation(fmt.Sprintf("Password cannot exceed %d bytes.", MaxPasswordBytes))
	}
	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasDigit {
		return Validation("Password must contain at least one uppercase letter and one number.")
	}
	return nil
}

func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < minTitleLength {
		return Validation(fmt.Sprintf("Title must be at least %d characters.", minTitleLength))
	}
	if n > maxTitleLength {
		return Validation(fmt.Sprintf("Title cannot exceed %d characters.", maxTitleLength))
	}
	return nil
}

// ValidateCourse checks a fully populated course before it is persisted.
func ValidateCourse(c *Course) error {
	if err := ValidateTitle(c.Title); err != nil {
		return err
	}
	if utf8.RuneCountInString(c.Description) > maxDescription {
		return Validation(fmt.Sprintf("Description cannot exceed %d characters.", maxDescription))
	}
	if !c.Language.Valid() {
		return Validation(fmt.Sprintf("%q is not a supported language.", c.Language))
	}
	if !c.Level.Valid() {
		return Validation(fmt.Sprintf("%q is not a valid level.", c.Level))
	}
	if !c.Category.Valid() {
		return Validation(fmt.Sprintf("%q is not a valid category.", c.Category))
	}
	if c.Modules < 0 {
		return Validation("Modules cannot be negative.")
	}
	return nil
}

// ValidatePatch checks only the fields a patch sets.
func ValidatePatch(p CoursePatch) error {
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > maxDescription {
		return Validation(fmt.Sprintf("Description cannot exceed %d characters.", maxDescription))
	}
	if p.Language != nil && !p.Language.Valid() {
		return Validation(fmt.Sprintf("%q is not a supported language.", *p.Language))
	}
	if p.Level != nil && !p.Level.Valid() {
		return Validation(fmt.Sprintf("%q is not a valid level.", *p.Level))
	}
	if p.Category != nil && !p.Category.Valid() {
		return Validation(fmt.Sprintf("%q is not a valid category.", *p.Category))
	}
	if p.Modules != nil && *p.Modules < 0 {
		return Validation("Modules cannot be negative.")
	}
	return nil
}

// CleanTags trims tags and drops empty ones.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
