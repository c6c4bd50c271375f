package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"my-pet/internal/platform/ledger"
)

// Store es el ledger en memoria. Los escritores se serializan en writer; cada
// Update escribe en overlays propios que solo ve su ctx, y al confirmar se
// vuelcan a las tablas base bajo mu (lock corto). Si fn falla, los overlays se
// descartan y no queda nada a medias.
type Store struct {
	writer sync.Mutex
	mu     sync.RWMutex

	newTxID func() string
}

var _ ledger.Ledger = (*Store)(nil)

func NewStore() *Store {
	return &Store{newTxID: uuid.NewString}
}

type txKey struct{}
type viewKey struct{}

type committer interface {
	commit(overlay any)
}

type txn struct {
	id       string
	overlays map[committer]any
	order    []committer
}

func txFrom(ctx context.Context) *txn {
	tx, _ := ctx.Value(txKey{}).(*txn)
	return tx
}

// unlocked: dentro de un Update (nadie más escribe la base) o de un View
// (ya tenemos el RLock) las lecturas no vuelven a bloquear.
func unlocked(ctx context.Context) bool {
	if txFrom(ctx) != nil {
		return true
	}
	v, _ := ctx.Value(viewKey{}).(bool)
	return v
}

func (s *Store) Update(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	tx := &txn{id: s.newTxID(), overlays: make(map[committer]any)}
	txCtx := ledger.WithTxID(context.WithValue(ctx, txKey{}, tx), tx.id)

	if err := fn(txCtx); err != nil {
		return err
	}

	s.mu.Lock()
	for _, c := range tx.order {
		c.commit(tx.overlays[c])
	}
	s.mu.Unlock()
	return nil
}

// View mantiene el RLock mientras dura fn: todas sus lecturas ven el mismo
// estado confirmado. El fn de un Update concurrente corre igual; solo su
// commit espera a que termine este View.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context) error) error {
	if unlocked(ctx) {
		return fn(ctx)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(context.WithValue(ctx, viewKey{}, true))
}
