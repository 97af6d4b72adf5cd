package utils

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is the work factor used for every stored password,
// whether set at registration or by an administrator.
const DefaultBcryptCost = 10

// HashPassword returns bcrypt hash using the given cost. A cost outside the
// range bcrypt accepts falls back to DefaultBcryptCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
