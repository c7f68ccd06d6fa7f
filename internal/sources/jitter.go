package sources

import (
	"math/rand/v2"
	"sync"
	"time"
)

// jitter serializes access to a *rand.Rand shared by concurrent lookups.
type jitter struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newJitter(r *rand.Rand) *jitter {
	if r == nil {
		seed := uint64(time.Now().UnixNano())
		r = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &jitter{r: r}
}

func (j *jitter) IntN(n int) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.r.IntN(n)
}
