package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	s := Parse("a=on,b=off,c=true,d=false,e=1,f=0")

	if !s.Enabled("a", 1) || !s.Enabled("c", 1) || !s.Enabled("e", 1) {
		t.Fatal("expected enabled values to evaluate true")
	}
	if s.Enabled("b", 1) || s.Enabled("d", 1) || s.Enabled("f", 1) {
		t.Fatal("expected disabled values to evaluate false")
	}
	if s.Enabled("missing", 1) {
		t.Fatal("unknown flags must be off")
	}
}

func TestEnabled_Rollout(t *testing.T) {
	s := Parse("always=100%,never=0%,canary=25%,over=150%")

	if !s.Enabled("always", 1) || !s.Enabled("over", 1) {
		t.Fatal("full rollout should be enabled")
	}
	if s.Enabled("never", 1) {
		t.Fatal("zero rollout should be disabled")
	}

	first := s.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if s.Enabled("canary", 42) != first {
			t.Fatal("rollout must be deterministic per user")
		}
	}
	if s.Enabled("canary", 0) {
		t.Fatal("partial rollout requires a user id")
	}
}

func TestParse_SkipsMalformed(t *testing.T) {
	s := Parse(" bad ,Comment_Likes=ON, profile_images = 20% ,z=maybe,=on")

	names := s.Names()
	if len(names) != 2 || names[0] != CommentLikes || names[1] != ProfileImages {
		t.Fatalf("unexpected flags: %v", names)
	}
	if got := s.String(); got != "comment_likes=on,profile_images=20%" {
		t.Fatalf("unexpected string form %q", got)
	}
	if len(s.For(7)) != 2 {
		t.Fatal("expected two evaluated flags")
	}
}

func TestNilSet(t *testing.T) {
	var s *Set
	if s.Enabled(CommentLikes, 1) {
		t.Fatal("nil set must have every flag off")
	}
	if len(s.For(1)) != 0 || s.Names() != nil {
		t.Fatal("nil set must be empty")
	}
}
