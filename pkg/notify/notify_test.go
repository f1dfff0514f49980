package notify

import (
	"testing"

	"staybook/pkg/logger"
)

func TestInbox_DrainOrderAndClear(t *testing.T) {
	in := NewInbox(10, logger.Discard())
	in.Notify(LevelError, "listing", "first")
	in.Notify(LevelSuccess, "payment", "second")

	got := in.Drain()
	if len(got) != 2 || got[0].Message != "first" || got[1].Message != "second" {
		t.Fatalf("Drain() = %+v", got)
	}
	if got[0].ID == "" || got[0].ID == got[1].ID {
		t.Errorf("notifications should carry distinct ids")
	}
	if in.Len() != 0 {
		t.Errorf("Len() after Drain = %d", in.Len())
	}
	if again := in.Drain(); len(again) != 0 {
		t.Errorf("second Drain() = %+v", again)
	}
}

func TestInbox_DropsOldestAtCapacity(t *testing.T) {
	in := NewInbox(2, logger.Discard())
	in.Notify(LevelInfo, "a", "1")
	in.Notify(LevelInfo, "a", "2")
	in.Notify(LevelInfo, "a", "3")

	got := in.Drain()
	if len(got) != 2 || got[0].Message != "2" || got[1].Message != "3" {
		t.Errorf("Drain() = %+v", got)
	}
}
