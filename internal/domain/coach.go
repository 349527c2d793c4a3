package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Coach is a coach profile owned by exactly one user account.
type Coach struct {
	ID           string
	UserID       string
	FullName     string
	Email        string
	Phone        string
	Organization string
	IsApproved   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c *Coach) Normalize() {
	c.ID = strings.TrimSpace(c.ID)
	c.UserID = strings.TrimSpace(c.UserID)
	c.FullName = strings.TrimSpace(c.FullName)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Organization = strings.TrimSpace(c.Organization)
}

func (c *Coach) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if c.FullName == "" {
		return fmt.Errorf("%w: fullName is required", ErrValidation)
	}
	if len([]rune(c.FullName)) > 255 {
		return fmt.Errorf("%w: fullName exceeds 255 characters", ErrValidation)
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("%w: invalid email %q", ErrValidation, c.Email)
		}
	}
	return nil
}
