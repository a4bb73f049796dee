package common

import (
	"context"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem guards write endpoints against client retries. The first request
// carrying a given Idempotency-Key claims a Redis lock; replays within the
// TTL get a 409 instead of running the handler again. Checkout,
// payment-intent and fee-payment POSTs sit behind it.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

// Middleware applies the idempotency check. Requests without a key pass
// through untouched.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}

		lockKey := "idem:" + Sha256Hex(header)
		claimed, err := i.R.SetNX(r.Context(), lockKey, "locked", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, CodeInternal, "idempotency store error", nil)
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}

		// Re-arm the expiry after the handler so the lock outlives a panic.
		defer func() {
			_ = i.R.Expire(context.Background(), lockKey, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
