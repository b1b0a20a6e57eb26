// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartMatchScheduler runs the background jobs: closing battle rooms whose
// window expired and refreshing the materialized leaderboard.
func StartMatchScheduler(matches *MatchService, profiles *ProfileService) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every 30s: end expired battles. The sweep logs and keeps going past
	// any single room's error.
	_, _ = sched.NewJob(
		gocron.DurationJob(30*time.Second),
		gocron.NewTask(func() {
			matches.SweepExpired(time.Now().UTC())
		}),
	)

	// Every 10 minutes: rebuild rankings.
	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			if err := profiles.RefreshRankings(); err != nil {
				log.Printf("[Scheduler] Ranking refresh failed: %v", err)
			}
		}),
	)
}
