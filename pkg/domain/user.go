package domain

import "github.com/google/uuid"

// UserID uniquely identifies a content author.
// It is a thin wrapper around uuid.UUID to provide type safety at the domain layer.
type UserID uuid.UUID
