package poker

// seat identifies a participant inside a room.
type seat struct {
	roomID   string
	username string
}

// connIndex is the bidirectional association between live connections and
// the seat each one claims. Both directions are updated together so a seat
// is claimed by at most one connection and a connection claims at most one
// seat.
type connIndex struct {
	byConn map[string]seat
	bySeat map[seat]string
}

func newConnIndex() *connIndex {
	return &connIndex{
		byConn: make(map[string]seat),
		bySeat: make(map[seat]string),
	}
}

func (ix *connIndex) lookup(connID string) (seat, bool) {
	s, ok := ix.byConn[connID]
	return s, ok
}

// bind claims s for connID, releasing whatever either side held before. It
// returns the connection that lost its claim on s, if any.
func (ix *connIndex) bind(connID string, s seat) (evicted string, ok bool) {
	ix.unbind(connID)
	if prev, held := ix.bySeat[s]; held {
		delete(ix.byConn, prev)
		evicted, ok = prev, true
	}
	ix.byConn[connID] = s
	ix.bySeat[s] = connID
	return evicted, ok
}

func (ix *connIndex) unbind(connID string) {
	s, ok := ix.byConn[connID]
	if !ok {
		return
	}
	delete(ix.byConn, connID)
	if ix.bySeat[s] == connID {
		delete(ix.bySeat, s)
	}
}

// rename re-points the claim on from to the seat to, if anyone holds it.
func (ix *connIndex) rename(from, to seat) {
	connID, ok := ix.bySeat[from]
	if !ok {
		return
	}
	delete(ix.bySeat, from)
	if prev, ok := ix.bySeat[to]; ok {
		delete(ix.byConn, prev)
	}
	ix.byConn[connID] = to
	ix.bySeat[to] = connID
}

func (ix *connIndex) len() int { return len(ix.byConn) }
