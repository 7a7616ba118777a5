// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

// User represents a registered account.
//
// WHY `json:"-"` ON PasswordHash?
// The hash must never leave the server. Tagging it with "-" means
// encoding/json skips it entirely, so a User can be written straight
// into a response without leaking it by accident.
type User struct {
	ID           int    `json:"id"    db:"id"`
	Name         string `json:"name"  db:"name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-"     db:"password"`
}

// AuthPayload is what signup and login hand back: a signed token plus the
// account it was issued for.
type AuthPayload struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
