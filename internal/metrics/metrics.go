// Package metrics tracks process-wide counters for the ops endpoints.
package metrics

import "sync/atomic"

var proposalsSucceeded int64
var proposalsFailed int64
var fallbackConversions int64
var activeConversions int64

func IncSucceeded() { atomic.AddInt64(&proposalsSucceeded, 1) }
func IncFailed()    { atomic.AddInt64(&proposalsFailed, 1) }
func IncFallback()  { atomic.AddInt64(&fallbackConversions, 1) }

func ConversionStarted()  { atomic.AddInt64(&activeConversions, 1) }
func ConversionFinished() { atomic.AddInt64(&activeConversions, -1) }

func Snapshot() map[string]int64 {
	return map[string]int64{
		"proposals_succeeded":  atomic.LoadInt64(&proposalsSucceeded),
		"proposals_failed":     atomic.LoadInt64(&proposalsFailed),
		"fallback_conversions": atomic.LoadInt64(&fallbackConversions),
		"active_conversions":   atomic.LoadInt64(&activeConversions),
	}
}
