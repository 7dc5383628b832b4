package heartbeat

import (
	"io"
	"testing"

	"github.com/tomasklepac/Tic-tac-toe/clients"
	"github.com/tomasklepac/Tic-tac-toe/conf"
	"github.com/tomasklepac/Tic-tac-toe/rooms"
)

type discard struct{}

func (discard) Read(p []byte) (int, error)  { return 0, io.EOF }
func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Close() error                { return nil }

func TestSweepDisconnectsAfterMaxMissedPongs(t *testing.T) {
	c := conf.Default()
	creg := clients.NewRegistry(4)
	rreg := rooms.NewRegistry(4, nil)

	alice, _ := creg.Create(discard{})
	bob, _ := creg.Create(discard{})
	alice.Nickname, bob.Nickname = "alice", "bob"

	room, _ := rreg.Create("r1", alice)
	rreg.Join(room.Id, bob)

	task := New(c, creg, rreg)
	for i := 0; i < maxMissedPongs; i++ {
		task.sweep()
		if !alice.Connected {
			t.Fatalf("alice disconnected too early, at sweep %d", i)
		}
	}
	task.sweep()

	if alice.Alive {
		t.Fatal("alice should be marked unreachable")
	}
	if _, ok := room.SlotOf(alice); ok {
		t.Fatal("alice should have been detached from the room")
	}
}

func TestSweepResetsOnPong(t *testing.T) {
	c := conf.Default()
	creg := clients.NewRegistry(4)
	rreg := rooms.NewRegistry(4, nil)

	alice, _ := creg.Create(discard{})
	task := New(c, creg, rreg)

	task.sweep()
	task.sweep()
	if alice.MissedPongs != 2 {
		t.Fatalf("MissedPongs = %d, want 2", alice.MissedPongs)
	}

	alice.MissedPongs = 0 // simulates the PONG handler in proto
	task.sweep()
	if alice.MissedPongs != 1 {
		t.Fatalf("MissedPongs = %d, want 1", alice.MissedPongs)
	}
	if !alice.Connected {
		t.Fatal("alice should still be connected")
	}
}
