package permission

// Mode selects how a multi-permission requirement combines.
type Mode uint8

const (
	// ModeAny passes when at least one required permission is granted.
	ModeAny Mode = iota
	// ModeAll passes only when every required permission is granted.
	ModeAll
)

func (m Mode) String() string {
	switch m {
	case ModeAny:
		return "any"
	case ModeAll:
		return "all"
	}
	return "unknown"
}

// Set is a granted-permission lookup. The zero value (nil) grants nothing.
type Set map[string]struct{}

// NewSet builds a Set from permission names. Empty names are ignored.
func NewSet(perms ...string) Set {
	if len(perms) == 0 {
		return nil
	}
	s := make(Set, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether the single permission is granted.
func (s Set) Has(perm string) bool {
	if len(s) == 0 || perm == "" {
		return false
	}
	_, ok := s[perm]
	return ok
}

// Any reports whether at least one of the required permissions is granted.
// An empty requirement is never satisfied.
func (s Set) Any(required ...string) bool {
	for _, p := range required {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// All reports whether every required permission is granted. An empty
// requirement is vacuously satisfied; callers treat "no requirement" as
// allow before evaluating.
func (s Set) All(required ...string) bool {
	for _, p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Evaluate applies mode to the required permissions. No requirements means
// nothing to deny, so it allows.
func Evaluate(s Set, required []string, mode Mode) bool {
	if len(required) == 0 {
		return true
	}
	if mode == ModeAll {
		return s.All(required...)
	}
	return s.Any(required...)
}
