package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for password hashes. Raising it only
// affects newly stored hashes; existing ones keep the cost they were hashed
// with and still verify.
const bcryptCost = 10

type CredentialService struct{}

func NewCredentialService() *CredentialService {
	return &CredentialService{}
}

func (s *CredentialService) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether plaintext matches the stored digest. bcrypt
// comparison does not short-circuit on the first differing byte, so a mismatch
// leaks no timing signal about how close the guess was.
func (s *CredentialService) ComparePassword(plaintext string, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
