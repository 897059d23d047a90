package auth

import "golang.org/x/crypto/bcrypt"

// bcrypt cost for new password hashes.
const hashCost = 12

// HashPassword hashes a password with bcrypt. Passwords over 72 bytes are
// rejected at the request-validation layer before reaching this.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the password matches the stored hash.
func VerifyPassword(password, hashedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
