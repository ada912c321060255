package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestRegister_HashesPasswordAndIssuesAPIKey(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{})
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ada", "Lovelace", "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if u.PasswordHash == "correct horse" || u.PasswordHash == "" {
		t.Fatalf("password must be stored hashed, got %q", u.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
	if u.APIKey == "" {
		t.Fatalf("expected an API key")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "Lovelace", "ada@example.com", "correct horse"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Register(ctx, "Other", "Ada", "ada@example.com", "another pass")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_RejectsBlankFields(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{})
	ctx := context.Background()

	for _, c := range []struct{ first, last, email, pass string }{
		{"", "Lovelace", "ada@example.com", "pw12345678"},
		{"Ada", "Lovelace", "", "pw12345678"},
		{"Ada", "Lovelace", "ada@example.com", ""},
	} {
		if _, err := svc.Register(ctx, c.first, c.last, c.email, c.pass); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%+v: expected ErrInvalidCredentials, got %v", c, err)
		}
	}
}

func TestValidateCredentials(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := NewUserService(repo)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Ada", "Lovelace", "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u, err := svc.ValidateCredentials(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != registered.ID {
		t.Fatalf("expected user %d, got %d", registered.ID, u.ID)
	}

	if _, err := svc.ValidateCredentials(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.ValidateCredentials(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}
