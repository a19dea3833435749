package shell

import (
	cmap "github.com/orcaman/concurrent-map"
)

// SessionVars holds per-context variables (e.g. the active groupId for
// `with` restrictions, saved query results) keyed by name. Backed by a
// concurrent map rather than a mutex-guarded map, matching this codebase's
// existing choice for shared, high-churn state. It is written only from the
// REPL goroutine but read from job-manager goroutines.
type SessionVars struct {
	m cmap.ConcurrentMap
}

func newSessionVars() *SessionVars {
	return &SessionVars{m: cmap.New()}
}

func (s *SessionVars) Set(name string, value interface{}) {
	s.m.Set(name, value)
}

func (s *SessionVars) Get(name string) (interface{}, bool) {
	return s.m.Get(name)
}

func (s *SessionVars) GetString(name string) (string, bool) {
	v, ok := s.m.Get(name)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

func (s *SessionVars) Unset(name string) {
	s.m.Remove(name)
}

func (s *SessionVars) Keys() []string {
	return s.m.Keys()
}
