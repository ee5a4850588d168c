package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// CompletionKey identifies a cached completion by everything that shapes the
// provider's output.
func CompletionKey(model, system, prompt string, temperature float64, maxTokens int) string {
	h := sha256.New()
	for _, part := range []string{
		model,
		system,
		prompt,
		strconv.FormatFloat(temperature, 'f', -1, 64),
		strconv.Itoa(maxTokens),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("completion:%s", hex.EncodeToString(h.Sum(nil)))
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
