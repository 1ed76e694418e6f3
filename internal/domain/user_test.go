package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/mkrupp/chroniclex/internal/domain"
)

func TestUserID_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
		want domain.UserID
	}{
		{name: "number", json: `7`, want: "7"},
		{name: "numeric string", json: `"7"`, want: "7"},
		{name: "padded numeric string", json: `" 007 "`, want: "7"},
		{name: "opaque string", json: `"u-42"`, want: "u-42"},
		{name: "null", json: `null`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var id domain.UserID
			if err := json.Unmarshal([]byte(tt.json), &id); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}

			if id != tt.want {
				t.Errorf("UserID = %q, want %q", id, tt.want)
			}
		})
	}
}

func TestUserID_MarshalJSON(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(struct {
		A domain.UserID `json:"a"`
		B domain.UserID `json:"b"`
	}{A: "12", B: "u-1"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	if want := `{"a":12,"b":"u-1"}`; string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}

func TestIsAuthor(t *testing.T) {
	t.Parallel()

	var post domain.Post
	if err := json.Unmarshal([]byte(`{"id":1,"title":"t","content":"c","author":3}`), &post); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	tests := []struct {
		name string
		user *domain.User
		want bool
	}{
		{name: "author with numeric id", user: &domain.User{ID: domain.UserIDFromInt(3)}, want: true},
		{name: "author with string id", user: &domain.User{ID: domain.NewUserID("3")}, want: true},
		{name: "other user", user: &domain.User{ID: domain.UserIDFromInt(4)}, want: false},
		{name: "unknown user", user: nil, want: false},
		{name: "user without id", user: &domain.User{Username: "alice"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := domain.IsAuthor(tt.user, post); got != tt.want {
				t.Errorf("IsAuthor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_DisplayName(t *testing.T) {
	t.Parallel()

	var nobody *domain.User
	if got := nobody.DisplayName(); got != "User" {
		t.Errorf("DisplayName() = %q, want %q", got, "User")
	}

	if got := (&domain.User{Username: "alice"}).DisplayName(); got != "alice" {
		t.Errorf("DisplayName() = %q, want %q", got, "alice")
	}
}

func TestAuthToken(t *testing.T) {
	t.Parallel()

	if got := domain.AuthToken("tok123").Header(); got != "Token tok123" {
		t.Errorf("Header() = %q, want %q", got, "Token tok123")
	}

	for _, tok := range []domain.AuthToken{"", "  "} {
		if !tok.IsZero() {
			t.Errorf("AuthToken(%q).IsZero() = false", tok)
		}
	}
}
