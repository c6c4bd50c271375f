package ledger

import "context"

// Ledger es la frontera transaccional compartida por los tres registros.
//
// Update ejecuta fn como una transacción serializada: o se confirman todas sus
// escrituras o ninguna. Las lecturas hechas con el ctx que recibe fn ven las
// escrituras propias aún no confirmadas. Un Update anidado (ctx que ya viene de
// un Update) se une a la transacción externa.
//
// View ejecuta fn sobre estado confirmado (nunca ve escrituras a medias). Un
// View no frena la validación ni las escrituras de un Update en curso; lo
// único que puede esperar es el commit:
//   - memoria: el commit espera a que terminen los View en vuelo, así que la
//     espera está acotada por el View más largo.
//   - SQLite: una sola conexión, lectores y escritores se turnan.
//   - Postgres: MVCC, el View no bloquea al escritor.
type Ledger interface {
	Update(ctx context.Context, fn func(ctx context.Context) error) error
	View(ctx context.Context, fn func(ctx context.Context) error) error
}

type txIDKey struct{}

// WithTxID guarda el id de transacción (lo asigna cada implementación).
func WithTxID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, txIDKey{}, id)
}

// TxID devuelve el id de la transacción en curso, o "" fuera de un Update.
func TxID(ctx context.Context) string {
	v, _ := ctx.Value(txIDKey{}).(string)
	return v
}
