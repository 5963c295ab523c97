// Package contact guarda as mensagens do formulário de contato.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxNameLen    = 200
	MaxEmailLen   = 320
	MaxMessageLen = 5000
)

var ErrInvalid = errors.New("invalid submission")

type Submission struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Company    string    `json:"company,omitempty"`
	Message    string    `json:"message"`
	Locale     string    `json:"locale,omitempty"`
	Country    string    `json:"country,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// FieldError aponta o campo que falhou; errors.Is(err, ErrInvalid) vale.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalid }

// Normalize apara os campos e valida. Retorna *FieldError no primeiro problema.
func (s *Submission) Normalize() error {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Company = strings.TrimSpace(s.Company)
	s.Message = strings.TrimSpace(s.Message)

	switch {
	case s.Name == "":
		return &FieldError{Field: "name", Reason: "required"}
	case utf8.RuneCountInString(s.Name) > MaxNameLen:
		return &FieldError{Field: "name", Reason: "too long"}
	case s.Email == "":
		return &FieldError{Field: "email", Reason: "required"}
	case len(s.Email) > MaxEmailLen:
		return &FieldError{Field: "email", Reason: "too long"}
	case s.Message == "":
		return &FieldError{Field: "message", Reason: "required"}
	case utf8.RuneCountInString(s.Message) > MaxMessageLen:
		return &FieldError{Field: "message", Reason: "too long"}
	}

	addr, err := mail.ParseAddress(s.Email)
	if err != nil || addr.Address != s.Email {
		return &FieldError{Field: "email", Reason: "invalid"}
	}
	return nil
}

type Store interface {
	Save(ctx context.Context, s Submission) error
}
