package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "abc")
	if got := Int("ENVUTIL_INT", 7); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
	t.Setenv("ENVUTIL_INT", " 12 ")
	if got := Int("ENVUTIL_INT", 7); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{"yes": true, "OFF": false, "": true, "maybe": true}
	for raw, want := range cases {
		t.Setenv("ENVUTIL_BOOL", raw)
		if got := Bool("ENVUTIL_BOOL", true); got != want {
			t.Fatalf("Bool(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestSecondsRejectsNonPositive(t *testing.T) {
	t.Setenv("ENVUTIL_SECS", "-3")
	if got := Seconds("ENVUTIL_SECS", time.Minute); got != time.Minute {
		t.Fatalf("Seconds: want=1m got=%s", got)
	}
	t.Setenv("ENVUTIL_SECS", "5")
	if got := Seconds("ENVUTIL_SECS", time.Minute); got != 5*time.Second {
		t.Fatalf("Seconds: want=5s got=%s", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("ENVUTIL_LIST", " a, ,b ,")
	got := List("ENVUTIL_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: unexpected %v", got)
	}
}
