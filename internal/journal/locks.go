package journal

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// lockTable hands out exclusive per-account locks. Callers acquire the
// full set of accounts an entry touches in sorted order, so two entries
// sharing accounts cannot deadlock.
type lockTable struct {
	mu    chan struct{} // guards locks map
	locks map[uuid.UUID]chan struct{}
}

func newLockTable() *lockTable {
	mu := make(chan struct{}, 1)
	mu <- struct{}{}
	return &lockTable{mu: mu, locks: make(map[uuid.UUID]chan struct{})}
}

func (t *lockTable) lockFor(accountID uuid.UUID) chan struct{} {
	<-t.mu
	defer func() { t.mu <- struct{}{} }()

	l, ok := t.locks[accountID]
	if !ok {
		l = make(chan struct{}, 1)
		t.locks[accountID] = l
	}
	return l
}

// acquire takes the locks for every account ID within timeout. It returns
// a release function on success, or ErrBusy if the deadline passes before
// the full set is held; partially acquired locks are released on failure.
func (t *lockTable) acquire(ctx context.Context, accountIDs []uuid.UUID, timeout time.Duration) (func(), error) {
	ids := dedupeSorted(accountIDs)

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	held := make([]chan struct{}, 0, len(ids))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, accountID := range ids {
		l := t.lockFor(accountID)
		select {
		case l <- struct{}{}:
			held = append(held, l)
		case <-deadline.C:
			release()
			return nil, ErrBusy
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

// dedupeSorted returns the unique account IDs in a fixed global order.
func dedupeSorted(accountIDs []uuid.UUID) []uuid.UUID {
	ids := append([]uuid.UUID(nil), accountIDs...)
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	out := make([]uuid.UUID, 0, len(ids))
	for _, accountID := range ids {
		if len(out) == 0 || accountID != out[len(out)-1] {
			out = append(out, accountID)
		}
	}
	return out
}
