package uid

import "github.com/google/uuid"

// New generates a new opaque unique identifier.
// Used for entity IDs and purchase transaction IDs.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether a string is a well-formed identifier.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
