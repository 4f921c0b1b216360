package logger

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// MinHashSaltLength is the shortest accepted LOG_HASH_SALT.
const MinHashSaltLength = 32

var hashSalt = "default-salt-change-in-production"

// InitHashSalt sets the salt used for hashing identifiers in logs. An empty
// salt is replaced by a random one, which keeps hashes stable only for the
// life of the process.
func InitHashSalt(salt string) error {
	if salt == "" {
		buf := make([]byte, MinHashSaltLength)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate hash salt: %w", err)
		}
		salt = hex.EncodeToString(buf)
	}
	if len(salt) < MinHashSaltLength {
		return fmt.Errorf("LOG_HASH_SALT must be at least %d characters", MinHashSaltLength)
	}
	hashSalt = salt
	return nil
}

// InitHashSaltForTesting sets the salt without length checks.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

// HashUserID creates a privacy-preserving hash of a user ID.
// This allows tracking user actions without exposing actual user IDs.
func HashUserID(userID int64) string {
	data := fmt.Sprintf("%d:%s", userID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	// Return first 8 characters for readability
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeDescription removes or truncates sensitive information from descriptions.
// This redacts the description but preserves length information for debugging.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}

	words := strings.Fields(desc)
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(words), len(desc))
}

// SanitizeText is a general-purpose sanitizer for any user-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}

	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}
