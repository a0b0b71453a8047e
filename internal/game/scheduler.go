package game

import (
	"context"

	"github.com/rs/zerolog/log"
)

// emitTask is a deferred broadcast, prepared under the lock and
// delivered after it is released.
type emitTask struct {
	toRoom  bool
	target  string
	event   string
	payload any
}

// EnsureLoop lazily starts the room's scheduler goroutine. Subsequent
// calls are no-ops while the loop runs.
func (reg *Registry) EnsureLoop(code string) {
	reg.mu.Lock()
	room, ok := reg.rooms[code]
	if !ok || room.loopRunning {
		reg.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	room.loopRunning = true
	room.cancelLoop = cancel
	reg.mu.Unlock()

	go reg.runLoop(ctx, code)
}

// runLoop advances one room on its deadlines: empty-room eviction,
// choose/playing/reveal timeouts and a once-per-second tick event. Each
// iteration takes the lock only for the mutation it performs; emission
// happens outside the critical section.
func (reg *Registry) runLoop(ctx context.Context, code string) {
	ticker := reg.tickers.Create(reg.opts.SchedulerCadence)
	var lastTickSec int64 = -1

	log.Debug().Str("room", code).Msg("scheduler loop started")
	defer log.Debug().Str("room", code).Msg("scheduler loop stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker:
			tasks, alive := reg.step(code)
			for _, t := range tasks {
				if t.toRoom {
					reg.emitter.ToRoom(t.target, t.event, t.payload)
				} else {
					reg.emitter.ToConn(t.target, t.event, t.payload)
				}
			}
			if !alive {
				return
			}

			now := reg.nowMs()
			if sec := now / 1000; sec != lastTickSec {
				lastTickSec = sec
				reg.emitter.ToRoom(code, "game:tick", map[string]any{
					"roomCode": code,
					"nowMs":    now,
				})
			}
		}
	}
}

// step runs one scheduler iteration under the lock and returns the
// broadcasts it produced. alive=false means the room is gone and the
// loop must terminate.
func (reg *Registry) step(code string) (tasks []emitTask, alive bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return nil, false
	}

	now := reg.nowMs()

	// Empty-room TTL eviction.
	if len(room.players) == 0 {
		if room.lastEmptyAtMs == 0 {
			room.lastEmptyAtMs = now
		} else if now-room.lastEmptyAtMs >= reg.opts.EmptyRoomTTL.Milliseconds() {
			reg.deleteRoomLocked(room)
			return nil, false
		}
	}

	if room.state == StateChoosing && room.chooseEndsAtMs != 0 && now >= room.chooseEndsAtMs {
		reg.autoChooseLocked(room)
		tasks = append(tasks, stateBroadcastLocked(room)...)
	}

	if room.state == StatePlaying && room.roundEndsAtMs != 0 && now >= room.roundEndsAtMs {
		word := room.word
		reg.revealRoundLocked(room)
		tasks = append(tasks, emitTask{
			toRoom: true, target: code, event: "game:reveal",
			payload: map[string]any{"roomCode": code, "word": word},
		})
		tasks = append(tasks, stateBroadcastLocked(room)...)
	}

	if room.state == StateReveal && room.revealEndsAtMs != 0 && now >= room.revealEndsAtMs {
		reg.advanceAfterRevealLocked(room)
		tasks = append(tasks, stateBroadcastLocked(room)...)
	}

	return tasks, true
}

// stateBroadcastLocked snapshots the public projection for the room and
// the drawer-private one, as deferred emits.
func stateBroadcastLocked(room *Room) []emitTask {
	tasks := []emitTask{{
		toRoom:  true,
		target:  room.code,
		event:   "room:state",
		payload: publicStateLocked(room, ""),
	}}
	if room.drawerID != "" {
		tasks = append(tasks, emitTask{
			target:  room.drawerID,
			event:   "room:state",
			payload: publicStateLocked(room, room.drawerID),
		})
	}
	return tasks
}
