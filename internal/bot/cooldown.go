package bot

import (
	"sync"
	"time"
)

const (
	newsCooldown    = 30 * time.Second
	summaryCooldown = time.Minute
)

type cooldownKey struct {
	userID  int64
	command string
}

// Cooldowns tracks the last accepted invocation per (user, command). The map
// is process-local and resets on restart; it exists for light abuse
// prevention, not durable rate limiting.
type Cooldowns struct {
	mu   sync.Mutex
	last map[cooldownKey]time.Time
	now  func() time.Time
}

func NewCooldowns() *Cooldowns {
	return &Cooldowns{
		last: make(map[cooldownKey]time.Time),
		now:  time.Now,
	}
}

// Try records an invocation if the window has elapsed. Otherwise it leaves
// the record untouched and returns the remaining wait.
func (c *Cooldowns) Try(userID int64, command string, window time.Duration) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cooldownKey{userID: userID, command: command}
	now := c.now()

	if last, ok := c.last[key]; ok {
		if remaining := window - now.Sub(last); remaining > 0 {
			return remaining, false
		}
	}

	c.last[key] = now

	return 0, true
}
