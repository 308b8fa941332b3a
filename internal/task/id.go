package task

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	minIDLength  = 3
	maxIDLength  = 8
	hexChunkSize = 4 // Process 4 hex chars (16 bits) at a time for base36 conversion
)

// GenerateID creates a unique task ID using hash-based generation with adaptive length.
// It starts with minIDLength characters and grows up to maxIDLength to avoid collisions.
// If every prefix collides, a fresh nonce is drawn and the search restarts.
func GenerateID(text string, createdAt time.Time, existsFn func(string) bool) string {
	for {
		// A random UUID supplies 122 bits of nonce entropy
		nonce := uuid.New()

		h := sha256.New()
		h.Write([]byte(text))
		h.Write([]byte(createdAt.Format(time.RFC3339Nano)))
		h.Write(nonce[:])
		base36 := hexToBase36(hex.EncodeToString(h.Sum(nil)))

		// Try progressively longer prefixes until we find a unique one
		for length := minIDLength; length <= maxIDLength; length++ {
			if length > len(base36) {
				break
			}
			candidate := base36[:length]
			if !existsFn(candidate) {
				return candidate
			}
		}
	}
}

// hexToBase36 converts a hex string to base36.
func hexToBase36(hexStr string) string {
	var result strings.Builder
	for i := 0; i < len(hexStr); i += hexChunkSize {
		end := min(i+hexChunkSize, len(hexStr))
		chunk := hexStr[i:end]
		val, _ := strconv.ParseUint(chunk, 16, 64)
		result.WriteString(strconv.FormatUint(val, 36))
	}
	return result.String()
}
