package models

// User is one row of the identity store: a personal access token and the tenant it resolves to.
// For the hosted service the tenant identifier is the user's email.
type User struct {
	Email string `json:"email"`
	Token string `json:"-"`
}

// MaskedUser is the admin-facing view of a User. The token is only included when
// explicitly requested.
type MaskedUser struct {
	Email     string `json:"email"`
	PATHash   string `json:"pat_hash"`
	PATLength int    `json:"pat_length"`
	PAT       string `json:"pat,omitempty"`
}
