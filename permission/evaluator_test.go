package permission

import "testing"

func TestHasMembership(t *testing.T) {
	s := NewSet("user:read", "user:write", "role:read")

	if !s.Has("user:write") {
		t.Fatalf("expected user:write to be granted")
	}
	if s.Has("role:write") {
		t.Fatalf("role:write should not be granted")
	}
	if s.Has("") {
		t.Fatalf("empty permission name should never match")
	}
}

func TestAnyAll(t *testing.T) {
	s := NewSet("user:read", "user:write")

	if !s.Any("role:write", "user:read") {
		t.Fatalf("Any should pass when one permission matches")
	}
	if s.Any("role:write", "role:read") {
		t.Fatalf("Any should fail when nothing matches")
	}
	if !s.All("user:read", "user:write") {
		t.Fatalf("All should pass when every permission matches")
	}
	if s.All("user:read", "role:write") {
		t.Fatalf("All should fail on one missing permission")
	}
}

func TestFailsClosed(t *testing.T) {
	checks := []struct {
		name string
		set  Set
	}{
		{"nil set", nil},
		{"empty set", NewSet()},
	}

	for _, tc := range checks {
		t.Run(tc.name, func(t *testing.T) {
			if tc.set.Has("user:read") {
				t.Fatalf("Has must fail closed")
			}
			if tc.set.Any("user:read", "user:write") {
				t.Fatalf("Any must fail closed")
			}
			if tc.set.All("user:read") {
				t.Fatalf("All must fail closed")
			}
			if Evaluate(tc.set, []string{"user:read"}, ModeAny) {
				t.Fatalf("Evaluate must fail closed")
			}
		})
	}
}

// All(P,R) must imply Any(P,R) for every non-empty requirement.
func TestAllImpliesAny(t *testing.T) {
	sets := []Set{
		nil,
		NewSet("a:read"),
		NewSet("a:read", "a:write"),
		NewSet("a:read", "a:write", "b:read", "b:write"),
	}
	requirements := [][]string{
		{"a:read"},
		{"a:read", "a:write"},
		{"a:write", "b:read"},
		{"c:read"},
		{"a:read", "c:read"},
	}

	for _, s := range sets {
		for _, req := range requirements {
			if s.All(req...) && !s.Any(req...) {
				t.Fatalf("All passed but Any failed for set %v required %v", s, req)
			}
		}
	}
}

func TestEvaluateEmptyRequirementAllows(t *testing.T) {
	if !Evaluate(nil, nil, ModeAll) {
		t.Fatalf("no requirement means nothing to deny")
	}
	if !Evaluate(NewSet("a:read"), nil, ModeAny) {
		t.Fatalf("no requirement means nothing to deny")
	}
}

func TestEvaluateModes(t *testing.T) {
	s := NewSet("user:read")

	if !Evaluate(s, []string{"user:read", "user:write"}, ModeAny) {
		t.Fatalf("ModeAny should pass on partial match")
	}
	if Evaluate(s, []string{"user:read", "user:write"}, ModeAll) {
		t.Fatalf("ModeAll should fail on partial match")
	}
}
