package stringutils

import "testing"

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("short string changed: %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("héllo", 2); got != "hé..." {
		t.Errorf("truncation split a rune: %q", got)
	}
}

func TestStripThink(t *testing.T) {
	in := "<think>\nplan the answer\n</think>\n25 times 47 is 1175"
	if got := StripThink(in); got != "25 times 47 is 1175" {
		t.Errorf("got %q", got)
	}
}

func TestOrDefault(t *testing.T) {
	if OrDefault("  ", "x") != "x" || OrDefault("a", "x") != "a" {
		t.Error("unexpected OrDefault result")
	}
}
