package oplog

import (
	"context"
	"time"

	dErrors "my-pet/internal/domainerrors"
	"my-pet/internal/platform/ledger"
	"my-pet/internal/platform/logger"
	"my-pet/internal/platform/metrics"
)

// Recorder ejecuta mutaciones de un registro dentro del ledger y deja una
// línea de log + métricas por operación (confirmada o rechazada).
type Recorder struct {
	Registry string
	Ledger   ledger.Ledger
	Log      logger.Logger
	Metrics  *metrics.Metrics
}

func (r Recorder) Mutate(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()

	var txID string
	err := r.Ledger.Update(ctx, func(ctx context.Context) error {
		txID = ledger.TxID(ctx)
		return fn(ctx)
	})

	r.Metrics.ObserveOperation(r.Registry, op, err, time.Since(start))

	if r.Log == nil {
		return err
	}
	fields := map[string]any{
		"registry": r.Registry,
		"op":       op,
		"tx_id":    txID,
	}
	switch {
	case err == nil:
		fields["outcome"] = "committed"
		r.Log.Info("registry mutation", fields)
	case dErrors.CodeOf(err) == dErrors.CodeInternal:
		fields["outcome"] = "failed"
		fields["error"] = err.Error()
		r.Log.Error("registry mutation", fields)
	default:
		fields["outcome"] = "rejected"
		fields["error_code"] = string(dErrors.CodeOf(err))
		r.Log.Warn("registry mutation", fields)
	}
	return err
}

// View es el lado lectura; no se registra.
func (r Recorder) View(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.Ledger.View(ctx, fn)
}

// Internal envuelve errores de storage no tipados como internal_error.
func Internal(err error, msg string) error {
	if err == nil {
		return nil
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
