package metrics

import "strconv"

// Package-level helpers against the global manager. Kept as plain
// functions so call sites stay one line.

func RecordDiscovery()          { globalManager.discoveries.Inc() }
func RecordDiscoveryDuplicate() { globalManager.discoveryDuplicates.Inc() }
func RecordLevelUp()            { globalManager.levelUps.Inc() }
func RecordLedgerSynthesized()  { globalManager.ledgersSynthesized.Inc() }
func RecordFlush()              { globalManager.flushes.Inc() }

func RecordReconciliation(realm string) {
	globalManager.reconciliationPicks.WithLabelValues(realm).Inc()
}

func UpdateLeaderboardSize(n int) { globalManager.leaderboardSize.Set(float64(n)) }

func RecordRealmWrite(realm string) {
	globalManager.realmWrites.WithLabelValues(realm).Inc()
}

func RecordRealmWriteError(realm string) {
	globalManager.realmWriteErrors.WithLabelValues(realm).Inc()
}

func RecordRealmReadError(realm string) {
	globalManager.realmReadErrors.WithLabelValues(realm).Inc()
}

func RecordHintScheduled() { globalManager.hintsScheduled.Inc() }
func RecordHintCancelled() { globalManager.hintsCancelled.Inc() }

func RecordHintFired(level int) {
	globalManager.hintsFired.WithLabelValues(strconv.Itoa(level)).Inc()
}

func RecordEventIngested()  { globalManager.eventsIngested.Inc() }
func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }
func RecordEventDropped()   { globalManager.eventsDropped.Inc() }

func UpdateQueueSize(n int) { globalManager.queueSize.Set(float64(n)) }

func RecordOutboxDelivery() { globalManager.outboxDeliveries.Inc() }
func RecordOutboxFailure()  { globalManager.outboxFailures.Inc() }

func UpdateOutboxPending(n int) { globalManager.outboxPending.Set(float64(n)) }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}
