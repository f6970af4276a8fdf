package main

import (
	"context"
	"fmt"
	"time"
)

// This is our interface, allowing us to enable proper testing
type BackgroundProcessor interface {
	pruneExpiredAnalyses() (int, error)
	isRetentionEnabled() bool
}

func (app *App) isRetentionEnabled() bool {
	return retentionDays > 0
}

// pruneExpiredAnalyses removes history records older than the retention
// window.
func (app *App) pruneExpiredAnalyses() (int, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	pruned, err := PruneAnalysesOlderThan(app.Database, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error pruning expired analyses: %w", err)
	}
	if pruned > 0 {
		log.Infof("Pruned %d analysis records older than %d days", pruned, retentionDays)
	}
	return pruned, nil
}

// StartBackgroundTasks starts the history retention loop in a thread.
// Failures back off exponentially up to an hour.
func StartBackgroundTasks(ctx context.Context, app BackgroundProcessor) {
	if !app.isRetentionEnabled() {
		log.Debugln("History retention disabled")
		return
	}

	go func() {
		minBackoffDuration := 10 * time.Second
		maxBackoffDuration := time.Hour
		pollingInterval := time.Hour

		backoffDuration := minBackoffDuration

		for {
			select {
			case <-ctx.Done():
				log.Infoln("Background tasks shutting down")
				return
			default: // needed to make this non-blocking
			}

			_, err := app.pruneExpiredAnalyses()
			if err != nil {
				log.Errorf("Error in background retention: %v", err)
				time.Sleep(backoffDuration)
				backoffDuration *= 2
				if backoffDuration > maxBackoffDuration {
					log.Warnf("Repeated errors in background retention. Setting backoff to %v", maxBackoffDuration)
					backoffDuration = maxBackoffDuration
				}
				continue
			}

			backoffDuration = minBackoffDuration
			time.Sleep(pollingInterval)
		}
	}()
}
