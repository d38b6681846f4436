package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash of the plaintext at the given cost.
// Cost comes from AUTH_BCRYPT_COST so tests can run at bcrypt.MinCost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword reports whether plain matches the stored hash. The error
// is opaque on purpose; callers map any mismatch to invalid credentials.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
