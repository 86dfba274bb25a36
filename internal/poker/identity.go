package poker

// ChangeRole toggles player/spectator and forfeits the participant's vote.
func (c *Coordinator) ChangeRole(roomID, username string) {
	c.apply(func(o *outbox) {
		r, ok := c.rooms[roomID]
		if !ok {
			return
		}
		p, ok := r.get(username)
		if !ok {
			return
		}
		p.Role = p.Role.toggled()
		p.Vote = ""
		o.broadcast(roomID, EventRoomUpdate, r.memberViews())
		o.broadcast(roomID, EventVotesUpdate, r.votes())
	})
}

// ChangeUsername renames a participant, keeping vote, role and admin flag.
// It returns ErrUsernameTaken when newName is already seated in the room; all
// other unmet preconditions are silent no-ops.
func (c *Coordinator) ChangeUsername(connID, roomID, oldName, newName string) error {
	var err error
	c.apply(func(o *outbox) {
		r, ok := c.rooms[roomID]
		if !ok {
			return
		}
		if _, ok := r.get(oldName); !ok {
			return
		}
		if _, ok := c.conns.lookup(connID); !ok {
			return
		}
		if oldName == newName {
			return
		}
		if _, taken := r.get(newName); taken {
			err = ErrUsernameTaken
			return
		}

		r.rename(oldName, newName)
		c.conns.rename(seat{roomID: roomID, username: oldName}, seat{roomID: roomID, username: newName})
		o.broadcast(roomID, EventRoomUpdate, r.memberViews())
		o.broadcast(roomID, EventVotesUpdate, r.votes())
	})
	return err
}
