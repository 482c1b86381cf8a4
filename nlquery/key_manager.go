package nlquery

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// KeyManager rotates across the configured Gemini API keys.
type KeyManager struct {
	keys    []string
	current uint32
	mu      sync.RWMutex
}

// NewKeyManager loads GEMINI_API_KEY_1 through GEMINI_API_KEY_4 from
// the environment, skipping any that are unset.
func NewKeyManager() *KeyManager {
	keys := make([]string, 0)

	for i := 1; i <= 4; i++ {
		key := os.Getenv(fmt.Sprintf("GEMINI_API_KEY_%d", i))
		if key != "" {
			keys = append(keys, key)
		}
	}

	return &KeyManager{
		keys:    keys,
		current: 0,
	}
}

// GetNextKey returns the next API key in rotation, or "" when none
// are configured.
func (km *KeyManager) GetNextKey() string {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if len(km.keys) == 0 {
		return ""
	}

	current := atomic.AddUint32(&km.current, 1)
	index := (current - 1) % uint32(len(km.keys))

	return km.keys[index]
}
