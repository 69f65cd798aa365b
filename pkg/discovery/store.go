package discovery

import "fmt"

func NewStore() *Store {
	return &Store{
		peers: make(map[string]Peer),
	}
}

func (s *Store) key(p Peer) string { return fmt.Sprintf("%s:%d", p.IP, p.Port) }

func (s *Store) Add(p Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[s.key(p)] = p
}

func (s *Store) Replace(list []Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers = make(map[string]Peer, len(list))
	for _, p := range list {
		s.peers[s.key(p)] = p
	}
}

func (s *Store) List() []Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Peer, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// RemoveIP drops a peer that failed a reachability probe so it is not served
// from the cache again before the next successful refresh. Matching is by IP
// because callers hold the plugin port, not the advertised peer port.
func (s *Store) RemoveIP(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, p := range s.peers {
		if p.IP == ip {
			delete(s.peers, key)
		}
	}
}
