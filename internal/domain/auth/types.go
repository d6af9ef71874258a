package auth

// Package auth contains domain-level types for caller identity.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"time"
)

// Source records how an identity was established.
type Source string

const (
	SourceBearer Source = "bearer"
	SourceDev    Source = "dev"
)

// ErrUnauthenticated is returned when a request carries no usable credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity represents the authenticated caller.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (preferred_username or sub)
	Email     string
	Name      string
	Source    Source
	ExpiresAt time.Time // zero for dev identities
}

// Valid reports whether the identity names a user.
func (i Identity) Valid() bool { return i.UserID != "" }
