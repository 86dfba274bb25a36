package poker

import (
	"math"
	"strconv"
	"strings"
)

func (c *Coordinator) Vote(roomID, username, card string) {
	c.apply(func(o *outbox) {
		r, ok := c.rooms[roomID]
		if !ok {
			return
		}
		p, ok := r.get(username)
		if !ok {
			return
		}
		p.Vote = card
		o.broadcast(roomID, EventVotesUpdate, r.votes())
		o.broadcast(roomID, EventUserVoted, username)
	})
}

// Reveal flips the room to revealed and broadcasts the tally. The result is
// returned so callers can archive it; ok is false for an unknown room.
func (c *Coordinator) Reveal(roomID string) (res RevealResult, ok bool) {
	c.apply(func(o *outbox) {
		r, found := c.rooms[roomID]
		if !found {
			return
		}
		r.revealed = true
		res = tally(r)
		ok = true
		o.broadcast(roomID, EventRevealVotes, res)
	})
	return res, ok
}

func (c *Coordinator) ResetVotes(roomID string) {
	c.apply(func(o *outbox) {
		r, ok := c.rooms[roomID]
		if !ok {
			return
		}
		r.clearVotes()
		r.revealed = false
		o.broadcast(roomID, EventResetVotes, nil)
	})
}

func tally(r *room) RevealResult {
	var (
		sum    float64
		n      int
		counts = make(map[string]int)
		seen   []string
	)
	r.each(func(p *Participant) {
		if p.Role != RolePlayer {
			return
		}
		if v, ok := numericVote(p.Vote); ok && v != 0 {
			sum += v
			n++
		}
		if p.Vote == "" {
			return
		}
		if counts[p.Vote] == 0 {
			seen = append(seen, p.Vote)
		}
		counts[p.Vote]++
	})

	res := RevealResult{Votes: r.votes()}
	if n > 0 {
		res.Average = sum / float64(n)
	}
	best := 0
	for _, v := range seen {
		if counts[v] > best {
			best = counts[v]
			res.MostVoted = v
		}
	}
	return res
}

// numericVote coerces a card to a number. Blank cards count as zero and
// non-finite values are rejected so the average stays encodable.
func numericVote(card string) (float64, bool) {
	s := strings.TrimSpace(card)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
