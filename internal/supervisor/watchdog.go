package supervisor

import (
	"fmt"
	"time"

	"github.com/HendryAvila/steward/internal/delivery"
)

// watch is the stagnation watchdog for one task. It polls the task table
// and alerts the client when no activity has happened for the configured
// timeout. It is never cancelled: the only way it exits is finding its
// task entry gone, which teardown guarantees. Alert delivery is
// best-effort like every other send.
func (s *Supervisor) watch(sessionID string) {
	interval := s.cfg.CheckInterval
	for {
		time.Sleep(interval)

		last, armed, exists := s.activity(sessionID)
		if !exists {
			return
		}

		stagnant := timeNow().UTC().Sub(last)
		switch {
		case !armed:
			// Alert already out; hold the slower cadence until a
			// stage completion re-arms.
			interval = s.cfg.AlertBackoff
		case stagnant >= s.cfg.StagnationAfter:
			s.markAlerted(sessionID)
			seconds := int(stagnant.Seconds())
			s.sender.Send(sessionID, delivery.NewStagnation(sessionID, stagnant,
				fmt.Sprintf("no stage completion in %d seconds; the workflow is still running", seconds)))
			s.logger.Warn().
				Str("session_id", sessionID).
				Int("seconds_stagnant", seconds).
				Msg("stagnation alert emitted")
			interval = s.cfg.AlertBackoff
		default:
			interval = s.cfg.CheckInterval
		}
	}
}
