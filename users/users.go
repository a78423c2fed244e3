package users

import (
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// MinSecretLength is the shortest secret accepted at registration.
const MinSecretLength = 6

var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// User is the record persisted under the userInfo storage key.
// JSON field names are fixed so records written by earlier clients still hydrate.
type User struct {
	Phone       string `json:"phone"`           // Login identifier (mobile number)
	DisplayName string `json:"name"`            // Name shown in the journal header
	Token       string `json:"token,omitempty"` // Opaque token issued by the identity provider
}

// ValidatePhone checks identifier is an 11 digit mainland mobile number.
func ValidatePhone(identifier string) error {
	if !phonePattern.MatchString(identifier) {
		return fmt.Errorf("please enter a valid mobile number")
	}
	return nil
}

// ValidateRegistration checks both fields are present and the secret is long enough.
func ValidateRegistration(identifier, secret string) error {
	if identifier == "" {
		return fmt.Errorf("identifier is required")
	}
	if secret == "" {
		return fmt.Errorf("secret is required")
	}
	if len(secret) < MinSecretLength {
		return fmt.Errorf("secret must be at least %d characters long", MinSecretLength)
	}
	return nil
}

// DefaultDisplayName derives a display name from the last four digits of the identifier.
func DefaultDisplayName(identifier string) string {
	if len(identifier) <= 4 {
		return "User " + identifier
	}
	return "User " + identifier[len(identifier)-4:]
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
