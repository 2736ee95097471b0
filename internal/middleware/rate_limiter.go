package middleware

import (
	"net/http"
	"sync"
	"time"

	"mulita/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Checkout rate limiter ─────────────────────────────────────────────────────

// checkoutEntry tracks checkout attempts per IP within a sliding window.
type checkoutEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

var (
	checkoutMap   = make(map[string]*checkoutEntry)
	checkoutMapMu sync.Mutex
)

// CheckoutRateLimiter limits checkout attempts to 10 per minute per IP.
// Retries of a failed checkout are cheap; rapid-fire order creation is not.
func CheckoutRateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		checkoutMapMu.Lock()
		entry, exists := checkoutMap[ip]
		if !exists {
			entry = &checkoutEntry{}
			checkoutMap[ip] = entry
		}
		checkoutMapMu.Unlock()

		entry.mu.Lock()
		defer entry.mu.Unlock()

		now := time.Now()
		if now.After(entry.windowEnd) {
			// Reset sliding window
			entry.count = 0
			entry.windowEnd = now.Add(time.Minute)
		}

		entry.count++
		if entry.count > 10 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(apierror.KindInvalidArgument, "Demasiados intentos de checkout. Intente en 1 minuto."))
			return
		}
		c.Next()
	}
}

// ── General API rate limiter ──────────────────────────────────────────────────

// rateEntry tracks request counts per IP for the general API limiter.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

var (
	apiRateMap   = make(map[string]*rateEntry)
	apiRateMapMu sync.Mutex
)

// RateLimiter returns a general-purpose sliding-window rate limiter.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		apiRateMapMu.Lock()
		entry, exists := apiRateMap[ip]
		if !exists {
			entry = &rateEntry{}
			apiRateMap[ip] = entry
		}
		apiRateMapMu.Unlock()

		entry.mu.Lock()
		defer entry.mu.Unlock()

		now := time.Now()
		if now.After(entry.windowEnd) {
			entry.count = 0
			entry.windowEnd = now.Add(window)
		}

		entry.count++
		if entry.count > limit {
			c.Header("Retry-After", entry.windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(apierror.KindInvalidArgument, "Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Periodically removes expired entries from both rate limiter maps to prevent
// memory leaks from accumulating IPs that never return.

const purgeInterval = 5 * time.Minute

func init() {
	go purgeExpiredEntries()
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		checkoutMapMu.Lock()
		purgedCheckout := 0
		for ip, entry := range checkoutMap {
			entry.mu.Lock()
			if now.After(entry.windowEnd) {
				delete(checkoutMap, ip)
				purgedCheckout++
			}
			entry.mu.Unlock()
		}
		checkoutMapMu.Unlock()

		apiRateMapMu.Lock()
		purgedAPI := 0
		for ip, entry := range apiRateMap {
			entry.mu.Lock()
			if now.After(entry.windowEnd) {
				delete(apiRateMap, ip)
				purgedAPI++
			}
			entry.mu.Unlock()
		}
		apiRateMapMu.Unlock()

		if purgedCheckout > 0 || purgedAPI > 0 {
			log.Debug().
				Int("checkout_entries_purged", purgedCheckout).
				Int("api_entries_purged", purgedAPI).
				Msg("rate limiter maps purged")
		}
	}
}
