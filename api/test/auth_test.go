package test

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestAuth(t *testing.T) {
	env, err := NewTestEnv(t, "auth_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	// Anonymous requests have no current user.
	w, err := env.Client().Get(env.URL + "/users/current")
	if err != nil {
		t.Fatal(err)
	}
	w.Body.Close()
	if w.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous current user: expected 401, got %s", w.Status)
	}

	// Wrong credentials are rejected without detail.
	if err := Login(env, env.UserEmail, "wrong-password"); err == nil {
		t.Fatal("login with a wrong password should fail")
	}

	if err := Login(env, env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}

	w, err = env.Client().Get(env.URL + "/users/current")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()
	if w.StatusCode != http.StatusOK {
		t.Fatalf("current user after login: expected 200, got %s", w.Status)
	}

	var current struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(w.Body).Decode(&current); err != nil {
		t.Fatal(err)
	}
	if current.Email != env.UserEmail || current.ID != env.UserID {
		t.Fatalf("unexpected current user: %+v", current)
	}

	// Signing up with a taken email is rejected.
	if _, err := Signup(env, "Copycat", env.UserEmail, "copycatpass"); err == nil {
		t.Fatal("signup with a taken email should fail")
	}

	if err := Logout(env); err != nil {
		t.Fatal(err)
	}

	w2, err := env.Client().Get(env.URL + "/users/current")
	if err != nil {
		t.Fatal(err)
	}
	w2.Body.Close()
	if w2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("current user after logout: expected 401, got %s", w2.Status)
	}
}
