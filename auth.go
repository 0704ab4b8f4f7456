package main

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func hashPassword(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	return string(b), err
}

func comparePassword(hash, p string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) == nil
}

// randomCredential produces an unguessable password hash for accounts
// created through a social provider, which never log in with a password.
func randomCredential() (string, error) {
	return hashPassword(uuid.NewString())
}
