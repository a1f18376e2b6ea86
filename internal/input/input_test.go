package input

import (
	"strings"
	"testing"
	"time"
)

func waitDone(t *testing.T, k *Keys) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if k.Done() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("done never observed")
}

func TestKeys_DoneWords(t *testing.T) {
	k := NewKeys(strings.NewReader("hello\nq\n"))
	waitDone(t, k)
	if k.Done() {
		t.Error("Done() = true twice for one keypress; want consumed")
	}
}

func TestKeys_IgnoresOtherLines(t *testing.T) {
	k := NewKeys(strings.NewReader("foo\nbar\n"))
	time.Sleep(20 * time.Millisecond)
	if k.Done() {
		t.Error("Done() = true with no done word typed")
	}
}
