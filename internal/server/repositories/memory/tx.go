package memory

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/filekeeper/internal/dbx"
)

type journalKey struct{}

// journal collects undo steps of the writes made by one transaction.
type journal struct {
	mu   sync.Mutex
	undo []func()
}

// remember registers undo for the transaction carried by ctx, if any.
// Outside a transaction writes are final.
func remember(ctx context.Context, undo func()) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok {
		return
	}
	j.mu.Lock()
	j.undo = append(j.undo, undo)
	j.mu.Unlock()
}

func (j *journal) rollback() {
	j.mu.Lock()
	steps := j.undo
	j.undo = nil
	j.mu.Unlock()

	for i := len(steps) - 1; i >= 0; i-- {
		steps[i]()
	}
}

// TxRunner runs fn with a nil DBTX. When fn returns an error or panics,
// the repository writes it made are undone in reverse order. Writes of
// other callers are left alone.
type TxRunner struct{}

func (TxRunner) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	j := &journal{}

	defer func() {
		if p := recover(); p != nil {
			j.rollback()
			panic(p)
		}
		if err != nil {
			j.rollback()
		}
	}()

	return fn(context.WithValue(ctx, journalKey{}, j), nil)
}
