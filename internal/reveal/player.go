// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"math/rand/v2"
	"strings"
	"time"
)

// =============================================================================
// TIMING
// =============================================================================

const (
	// FirstFragmentDelay is the base pause before the first bubble of a
	// batch. The longer opening pause is what sells "she's typing".
	FirstFragmentDelay = 800 * time.Millisecond

	// NextFragmentDelay is the base pause between subsequent bubbles of
	// the same batch.
	NextFragmentDelay = 400 * time.Millisecond

	// JitterBound is the exclusive upper bound of the random jitter added
	// to every pause. Fixed cadence is detectable; jitter is not.
	JitterBound = 500 * time.Millisecond
)

// Tick describes the one-shot timer the caller must schedule. Run ties the
// timer to the player activation that produced it; a fire with a stale run
// is ignored.
type Tick struct {
	Run   int
	Delay time.Duration
}

// Reveal is the outcome of a timer firing: the fragment to append as a
// companion message, and either the next Tick to arm or Done.
type Reveal struct {
	Text string
	Next Tick
	Done bool
}

// =============================================================================
// PLAYER
// =============================================================================

// Player stages reply batches. State is (queue of batches, cursor into the
// head batch, typing flag, run counter). Batches play strictly in arrival
// order, each completely; the only way a queued fragment is not revealed is
// Cancel.
//
// Player is not safe for concurrent use; the chat controller drives it from
// the update loop only.
type Player struct {
	run    int
	queue  [][]string
	cursor int
	typing bool

	// jitter draws the random component of each pause. Swappable in tests
	// to make delays deterministic.
	jitter func() time.Duration
}

// NewPlayer creates an idle player with the default jitter source.
func NewPlayer() *Player {
	return &Player{
		jitter: func() time.Duration {
			return time.Duration(rand.Int64N(int64(JitterBound)))
		},
	}
}

// Enqueue hands the player one reply batch. Empty fragments are dropped (a
// bubble must carry text); a batch that ends up empty while the player is
// idle turns the typing indicator off immediately.
//
// When the player was idle the batch starts a new run and the returned Tick
// must be scheduled (second return true). When a run is already playing the
// batch queues behind it and the pending timer stands.
func (p *Player) Enqueue(fragments []string) (Tick, bool) {
	batch := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f) == "" {
			continue
		}
		batch = append(batch, f)
	}

	if len(batch) == 0 {
		if !p.Active() {
			p.typing = false
		}
		return Tick{}, false
	}

	if p.Active() {
		p.queue = append(p.queue, batch)
		return Tick{}, false
	}

	p.run++
	p.queue = [][]string{batch}
	p.cursor = 0
	p.typing = true
	return Tick{Run: p.run, Delay: p.delayFor(0)}, true
}

// Advance consumes one timer fire. A stale run (cancelled or superseded)
// advances nothing and reports false. Otherwise it returns the fragment to
// append; unless Done, the caller schedules Reveal.Next.
func (p *Player) Advance(run int) (Reveal, bool) {
	if run != p.run || !p.Active() {
		return Reveal{}, false
	}

	batch := p.queue[0]
	text := batch[p.cursor]
	p.cursor++

	if p.cursor >= len(batch) {
		p.queue = p.queue[1:]
		p.cursor = 0
	}

	if !p.Active() {
		p.typing = false
		return Reveal{Text: text, Done: true}, true
	}

	return Reveal{
		Text: text,
		Next: Tick{Run: p.run, Delay: p.delayFor(p.cursor)},
	}, true
}

// Cancel tears the player down: the queue is dropped, typing goes off, and
// the run counter is bumped so any timer still in flight fires stale. After
// Cancel no Advance mutates anything until a new Enqueue.
func (p *Player) Cancel() {
	p.run++
	p.queue = nil
	p.cursor = 0
	p.typing = false
}

// Typing reports whether the typing indicator should show for the player's
// part of the lifecycle (true from the start of a run until its last
// fragment is revealed).
func (p *Player) Typing() bool {
	return p.typing
}

// Active reports whether fragments remain to be revealed.
func (p *Player) Active() bool {
	return len(p.queue) > 0
}

// delayFor computes the pause before revealing the fragment at cursor:
// the batch opener waits longer than the rest, and every pause carries
// jitter in [0, JitterBound).
func (p *Player) delayFor(cursor int) time.Duration {
	base := NextFragmentDelay
	if cursor == 0 {
		base = FirstFragmentDelay
	}
	return base + p.jitter()
}
