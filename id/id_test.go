package id

import (
	"strings"
	"testing"
)

func TestNewFormat(t *testing.T) {
	got := New("msg")
	if !strings.HasPrefix(got, "msg_") {
		t.Errorf("id = %q", got)
	}
	if len(got) != len("msg_")+DefaultLength {
		t.Errorf("id length = %d", len(got))
	}
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewMessage()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestGuestTokenLength(t *testing.T) {
	tok := NewGuestToken()
	if !strings.HasPrefix(tok, "guest_") {
		t.Errorf("token = %q", tok)
	}
	if len(tok) != len("guest_")+GuestTokenLength {
		t.Errorf("token length = %d", len(tok))
	}
}
