package keysig

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"my-pet/internal/domain/identity"
	"my-pet/internal/ports/auth"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/sha3"
)

var (
	ErrMissingHeaders = errors.New("keysig: public key, signature and timestamp are required")
	ErrBadPublicKey   = errors.New("keysig: invalid public key")
	ErrBadSignature   = errors.New("keysig: invalid signature")
	ErrStaleRequest   = errors.New("keysig: timestamp outside allowed skew")
	ErrReplayed       = errors.New("keysig: signature already used")
)

const (
	defaultMaxSkew = 5 * time.Minute

	// Firmas recordadas a la vez. Si se llena, se descartan las más viejas.
	defaultReplayCapacity = 100_000
)

type Config struct {
	// MaxSkew es la diferencia máxima aceptada entre X-Timestamp y el reloj local.
	MaxSkew time.Duration

	// ReplayCapacity: cuántas firmas recientes se recuerdan (default 100k).
	ReplayCapacity int
}

// Verifier implementa auth.AuthVerifier con firmas ed25519. La identidad del
// principal se deriva de la clave pública (últimos 20 bytes de Keccak-256),
// nunca del payload.
//
// Cada par (identidad, firma) se acepta una sola vez mientras su timestamp
// siga dentro de la ventana; un reenvío idéntico devuelve ErrReplayed. El
// registro es por proceso: varias réplicas detrás de un balanceador no lo
// comparten.
type Verifier struct {
	maxSkew time.Duration
	now     func() time.Time

	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

func NewVerifier(cfg Config) *Verifier {
	skew := cfg.MaxSkew
	if skew <= 0 {
		skew = defaultMaxSkew
	}
	capacity := cfg.ReplayCapacity
	if capacity <= 0 {
		capacity = defaultReplayCapacity
	}
	// Un timestamp vale hasta maxSkew en el futuro y hasta maxSkew en el
	// pasado: 2*maxSkew cubre toda su vida útil.
	return &Verifier{
		maxSkew: skew,
		now:     time.Now,
		seen:    expirable.NewLRU[string, struct{}](capacity, nil, 2*skew),
	}
}

func (v *Verifier) Verify(_ context.Context, req auth.SignedRequest) (auth.Claims, error) {
	pubHex := strings.TrimSpace(req.PublicKey)
	sigHex := strings.TrimSpace(req.Signature)
	ts := strings.TrimSpace(req.Timestamp)
	if pubHex == "" || sigHex == "" || ts == "" {
		return auth.Claims{}, ErrMissingHeaders
	}

	pub, err := hex.DecodeString(strings.TrimPrefix(pubHex, "0x"))
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return auth.Claims{}, ErrBadPublicKey
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil || len(sig) != ed25519.SignatureSize {
		return auth.Claims{}, ErrBadSignature
	}

	at, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrStaleRequest, err)
	}
	if d := v.now().Sub(at); d > v.maxSkew || d < -v.maxSkew {
		return auth.Claims{}, ErrStaleRequest
	}

	if !ed25519.Verify(pub, Message(req.Method, req.Path, ts, req.Body), sig) {
		return auth.Claims{}, ErrBadSignature
	}

	id := DeriveIdentity(pub)
	if !v.remember(id.String() + ":" + hex.EncodeToString(sig)) {
		return auth.Claims{}, ErrReplayed
	}

	return auth.Claims{
		Identity:  id,
		PublicKey: hex.EncodeToString(pub),
	}, nil
}

// remember devuelve false si la clave ya se vio dentro de la ventana.
func (v *Verifier) remember(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.seen.Contains(key) {
		return false
	}
	v.seen.Add(key, struct{}{})
	return true
}

// DeriveIdentity: "0x" + hex(keccak256(pub)[12:]).
func DeriveIdentity(pub ed25519.PublicKey) identity.ID {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(pub)
	sum := h.Sum(nil)
	return identity.ID("0x" + hex.EncodeToString(sum[12:]))
}

// Message es el contenido firmado: METHOD\nPATH\nTIMESTAMP\nhex(keccak256(body)).
func Message(method, path, timestamp string, body []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(body)
	return []byte(strings.ToUpper(method) + "\n" + path + "\n" + timestamp + "\n" + hex.EncodeToString(h.Sum(nil)))
}

// Sign es el helper del lado cliente (CLI, tests).
func Sign(priv ed25519.PrivateKey, method, path, timestamp string, body []byte) string {
	return hex.EncodeToString(ed25519.Sign(priv, Message(method, path, timestamp, body)))
}
