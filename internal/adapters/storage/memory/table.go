package memory

import (
	"cmp"
	"context"
	"slices"
)

// table es un mapa transaccional: las escrituras de un Update van a un
// overlay y las lecturas con ese ctx lo consultan primero.
type table[K cmp.Ordered, V any] struct {
	st    *Store
	rows  map[K]V
	clone func(V) V
}

type overlay[K cmp.Ordered, V any] struct {
	rows    map[K]V
	deleted map[K]struct{}
}

func newTable[K cmp.Ordered, V any](st *Store, clone func(V) V) *table[K, V] {
	if clone == nil {
		clone = func(v V) V { return v }
	}
	return &table[K, V]{st: st, rows: make(map[K]V), clone: clone}
}

func (t *table[K, V]) overlayOf(tx *txn) *overlay[K, V] {
	if o, ok := tx.overlays[t]; ok {
		return o.(*overlay[K, V])
	}
	o := &overlay[K, V]{rows: make(map[K]V), deleted: make(map[K]struct{})}
	tx.overlays[t] = o
	tx.order = append(tx.order, t)
	return o
}

func (t *table[K, V]) commit(raw any) {
	o := raw.(*overlay[K, V])
	for k := range o.deleted {
		delete(t.rows, k)
	}
	for k, v := range o.rows {
		t.rows[k] = v
	}
}

func (t *table[K, V]) get(ctx context.Context, k K) (V, bool) {
	if tx := txFrom(ctx); tx != nil {
		if raw, ok := tx.overlays[t]; ok {
			o := raw.(*overlay[K, V])
			if _, gone := o.deleted[k]; gone {
				var zero V
				return zero, false
			}
			if v, ok := o.rows[k]; ok {
				return t.clone(v), true
			}
		}
	}

	if !unlocked(ctx) {
		t.st.mu.RLock()
		defer t.st.mu.RUnlock()
	}
	v, ok := t.rows[k]
	if !ok {
		var zero V
		return zero, false
	}
	return t.clone(v), true
}

func (t *table[K, V]) put(ctx context.Context, k K, v V) error {
	return t.st.Update(ctx, func(ctx context.Context) error {
		o := t.overlayOf(txFrom(ctx))
		delete(o.deleted, k)
		o.rows[k] = t.clone(v)
		return nil
	})
}

func (t *table[K, V]) delete(ctx context.Context, k K) error {
	return t.st.Update(ctx, func(ctx context.Context) error {
		o := t.overlayOf(txFrom(ctx))
		delete(o.rows, k)
		o.deleted[k] = struct{}{}
		return nil
	})
}

// keys devuelve las claves visibles desde ctx en orden ascendente.
func (t *table[K, V]) keys(ctx context.Context) []K {
	var o *overlay[K, V]
	if tx := txFrom(ctx); tx != nil {
		if raw, ok := tx.overlays[t]; ok {
			o = raw.(*overlay[K, V])
		}
	}

	if !unlocked(ctx) {
		t.st.mu.RLock()
		defer t.st.mu.RUnlock()
	}
	out := make([]K, 0, len(t.rows))
	for k := range t.rows {
		if o != nil {
			if _, gone := o.deleted[k]; gone {
				continue
			}
			if _, shadowed := o.rows[k]; shadowed {
				continue
			}
		}
		out = append(out, k)
	}
	if o != nil {
		for k := range o.rows {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// values devuelve los registros visibles ordenados por clave.
func (t *table[K, V]) values(ctx context.Context) []V {
	keys := t.keys(ctx)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		if v, ok := t.get(ctx, k); ok {
			out = append(out, v)
		}
	}
	return out
}

// sequence da ids consecutivos desde 1. El contador vive en una table, así
// que un Update fallido no consume ids.
type sequence struct {
	t *table[string, uint64]
}

func (s sequence) next(ctx context.Context, name string) (uint64, error) {
	var id uint64
	err := s.t.st.Update(ctx, func(ctx context.Context) error {
		cur, _ := s.t.get(ctx, name)
		id = cur + 1
		return s.t.put(ctx, name, id)
	})
	return id, err
}

// idList: índice secundario clave -> ids, en orden de inserción.
type idList[K cmp.Ordered] struct {
	t *table[K, []uint64]
}

func newIDList[K cmp.Ordered](st *Store) idList[K] {
	return idList[K]{t: newTable[K, []uint64](st, func(ids []uint64) []uint64 { return slices.Clone(ids) })}
}

func (l idList[K]) get(ctx context.Context, k K) []uint64 {
	ids, _ := l.t.get(ctx, k)
	return ids
}

func (l idList[K]) add(ctx context.Context, k K, id uint64) error {
	ids := l.get(ctx, k)
	if slices.Contains(ids, id) {
		return nil
	}
	return l.t.put(ctx, k, append(ids, id))
}

func (l idList[K]) remove(ctx context.Context, k K, id uint64) error {
	ids := l.get(ctx, k)
	i := slices.Index(ids, id)
	if i < 0 {
		return nil
	}
	ids = slices.Delete(ids, i, i+1)
	if len(ids) == 0 {
		return l.t.delete(ctx, k)
	}
	return l.t.put(ctx, k, ids)
}
