package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UserID identifies a backend user. The backend emits numeric ids, but ids are
// kept in a canonical string form so values decoded from different payloads
// compare equal regardless of their JSON type.
type UserID string

// NewUserID normalizes the given id into its canonical form.
func NewUserID(id string) UserID {
	id = strings.TrimSpace(id)

	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return UserID(strconv.FormatInt(n, 10))
	}

	return UserID(id)
}

// UserIDFromInt returns the canonical UserID of a numeric id.
func UserIDFromInt(id int64) UserID {
	return UserID(strconv.FormatInt(id, 10))
}

// String returns the string representation of the UserID.
func (id UserID) String() string {
	return string(id)
}

// IsZero reports whether the id is unset.
func (id UserID) IsZero() bool {
	return id == ""
}

// MarshalJSON emits numeric ids as JSON numbers and everything else as strings.
func (id UserID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}

	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}

	//nolint:wrapcheck
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts JSON numbers, strings and null.
func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal user id: %w", err)
		}

		*id = NewUserID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unmarshal user id: %w", err)
		}

		*id = NewUserID(n.String())
	}

	return nil
}

// User is the identity of the signed-in user as reported by the backend.
// It is display data only; the backend decides what the user may do.
type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DisplayName returns the username, or "User" when it is unknown.
func (u *User) DisplayName() string {
	if u == nil || u.Username == "" {
		return "User"
	}

	return u.Username
}

// SignupRequest is the payload of a signup call.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload of a login call. Identifier may hold either a
// username or an email address; the backend resolves both.
type LoginRequest struct {
	Identifier string `json:"username"`
	Password   string `json:"password"`
}

// LoginResponse is the backend's answer to a successful login.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   UserID `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// User returns the identity carried by the login response.
func (r LoginResponse) User() User {
	return User{
		ID:       r.UserID,
		Username: r.Username,
		Email:    r.Email,
	}
}

// DetailResponse is the generic `{detail}` acknowledgement.
type DetailResponse struct {
	Detail string `json:"detail"`
}
