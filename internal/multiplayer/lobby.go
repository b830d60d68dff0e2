package multiplayer

import "golang.org/x/time/rate"

// seat is one player slot of the running match.
type seat struct {
	peer    Peer
	ready   bool
	limiter *rate.Limiter
}

// lobby maps connections to player ids. Ids are seat indexes, so a freed
// seat is handed to the next connection that arrives.
type lobby struct {
	seats  []*seat
	byPeer map[Peer]int
}

func newLobby(players int) *lobby {
	return &lobby{
		seats:  make([]*seat, players),
		byPeer: make(map[Peer]int),
	}
}

// join seats p in the lowest free slot. It reports false when the match
// is full.
func (l *lobby) join(p Peer, limiter *rate.Limiter) (int, bool) {
	for i, s := range l.seats {
		if s == nil {
			l.seats[i] = &seat{peer: p, limiter: limiter}
			l.byPeer[p] = i
			return i, true
		}
	}
	return 0, false
}

// leave frees p's seat and returns its id.
func (l *lobby) leave(p Peer) (int, bool) {
	id, ok := l.byPeer[p]
	if !ok {
		return 0, false
	}
	delete(l.byPeer, p)
	l.seats[id] = nil
	return id, true
}

func (l *lobby) lookup(p Peer) (int, *seat, bool) {
	id, ok := l.byPeer[p]
	if !ok {
		return 0, nil, false
	}
	return id, l.seats[id], true
}

func (l *lobby) peer(id int) Peer {
	if id < 0 || id >= len(l.seats) || l.seats[id] == nil {
		return nil
	}
	return l.seats[id].peer
}

// count returns the number of occupied seats.
func (l *lobby) count() int {
	return len(l.byPeer)
}

// ready reports whether every seat is taken and has said hello.
func (l *lobby) ready() bool {
	for _, s := range l.seats {
		if s == nil || !s.ready {
			return false
		}
	}
	return true
}

// addrs returns the remote address of each seat.
func (l *lobby) addrs() []string {
	out := make([]string, len(l.seats))
	for i, s := range l.seats {
		if s != nil {
			out[i] = s.peer.RemoteAddr()
		}
	}
	return out
}

// clear forgets every seat. Connections stay open.
func (l *lobby) clear() {
	for i := range l.seats {
		l.seats[i] = nil
	}
	l.byPeer = make(map[Peer]int)
}
