package config

import (
	"os"
	"strings"
)

// UseReservationRedisLock enables a best-effort redis lock around order
// status transitions in the HTTP layer. Reliability must not depend on it:
// posting is also serialized via MySQL advisory locks inside the transaction.
//
// Set via env:
// - RESERVATION_REDIS_LOCK=true
func UseReservationRedisLock() bool {
	return boolEnv("RESERVATION_REDIS_LOCK")
}

// RunOutboxDispatcher starts the in-process outbox dispatcher that publishes
// committed change records to Pub/Sub.
//
// Set via env:
// - OUTBOX_DISPATCHER=true
func RunOutboxDispatcher() bool {
	return boolEnv("OUTBOX_DISPATCHER")
}

func boolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
