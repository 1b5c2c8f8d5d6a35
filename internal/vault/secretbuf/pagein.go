package secretbuf

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cooky451/passchain-go/internal/recovery"
	"github.com/cooky451/passchain-go/internal/vaultcrypto"
)

// pageInInterval is how often the background task touches secret state.
const pageInInterval = 80 * time.Millisecond

// PageInTask periodically reads the ephemeral key and the CSPRNG's state
// to discourage the OS from paging that working set out to disk. It never
// mutates anything it touches. It must be stopped before the key or RNG it
// was given are scrubbed, or the task could race a read against a zero
// write.
type PageInTask struct {
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// StartPageIn launches the page-in task as its own goroutine. ring and rng
// are read-only from the task's perspective; the caller retains ownership
// and must call Stop before scrubbing either.
func StartPageIn(logger *slog.Logger, ring *KeyRing, rng *vaultcrypto.CSPRNG) *PageInTask {
	t := &PageInTask{stopCh: make(chan struct{})}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer recovery.RecoverWithLog(logger, "secretbuf.pageIn")

		ticker := time.NewTicker(pageInInterval)
		defer ticker.Stop()

		for {
			select {
			case <-t.stopCh:
				return
			case <-ticker.C:
				touchKey(ring)
				rng.Touch()
			}
		}
	}()

	return t
}

// touchKey reads every byte of the ephemeral key without modifying it.
func touchKey(ring *KeyRing) {
	key := ring.Key()
	var sink byte
	for _, b := range key {
		sink ^= b
	}
	_ = sink
}

// Stop signals the background goroutine to exit and blocks until it has.
// Safe to call more than once; only the first call has effect.
func (t *PageInTask) Stop() {
	t.once.Do(func() {
		close(t.stopCh)
	})
	t.wg.Wait()
}
