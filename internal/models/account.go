package models

// Account represents a registered identity in the credential store.
// The username is the natural key: case-sensitive, unique, immutable.
type Account struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never expose this to the client
}
