package poker

import "strings"

type Role string

const (
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// ParseRole maps a client supplied role onto a known Role. Anything that is
// not a spectator is treated as a player.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleSpectator)) {
		return RoleSpectator
	}
	return RolePlayer
}

func (r Role) toggled() Role {
	if r == RoleSpectator {
		return RolePlayer
	}
	return RoleSpectator
}

type Participant struct {
	Username string
	Vote     string
	Role     Role
	IsAdmin  bool
}

// room is the membership table of a single room. order keeps usernames in
// insertion order, which is the iteration order used for plurality ties.
type room struct {
	order    []string
	members  map[string]*Participant
	revealed bool
}

func newRoom() *room {
	return &room{members: make(map[string]*Participant)}
}

func (r *room) get(username string) (*Participant, bool) {
	p, ok := r.members[username]
	return p, ok
}

// upsert inserts the participant or updates it in place, keeping its position.
func (r *room) upsert(p Participant) {
	if cur, ok := r.members[p.Username]; ok {
		*cur = p
		return
	}
	r.members[p.Username] = &p
	r.order = append(r.order, p.Username)
}

func (r *room) remove(username string) bool {
	if _, ok := r.members[username]; !ok {
		return false
	}
	delete(r.members, username)
	for i, name := range r.order {
		if name == username {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// rename moves oldName to newName, re-inserting it at the end.
func (r *room) rename(oldName, newName string) {
	p, ok := r.members[oldName]
	if !ok {
		return
	}
	r.remove(oldName)
	p.Username = newName
	r.members[newName] = p
	r.order = append(r.order, newName)
}

func (r *room) each(fn func(p *Participant)) {
	for _, name := range r.order {
		fn(r.members[name])
	}
}

func (r *room) clearVotes() {
	for _, p := range r.members {
		p.Vote = ""
	}
}

func (r *room) memberViews() []MemberView {
	out := make([]MemberView, 0, len(r.order))
	r.each(func(p *Participant) {
		out = append(out, MemberView{Username: p.Username, Role: p.Role, Admin: p.IsAdmin})
	})
	return out
}

func (r *room) votes() map[string]string {
	out := make(map[string]string, len(r.members))
	for name, p := range r.members {
		out[name] = p.Vote
	}
	return out
}
