package clients

import (
	"bytes"
	"io"
	"testing"
)

type loopback struct {
	bytes.Buffer
}

func (loopback) Close() error { return nil }

func TestCreateAssignsTokenAndNoRoom(t *testing.T) {
	reg := NewRegistry(2)
	c, err := reg.Create(&loopback{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(c.Session) != 16 {
		t.Fatalf("session token length = %d, want 16", len(c.Session))
	}
	if c.RoomID != NoRoom {
		t.Fatalf("RoomID = %d, want NoRoom", c.RoomID)
	}
}

func TestRegistryFull(t *testing.T) {
	reg := NewRegistry(1)
	if _, err := reg.Create(&loopback{}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := reg.Create(&loopback{}); err != ErrServerFull {
		t.Fatalf("second Create = %v, want ErrServerFull", err)
	}
}

func TestDestroyFreesSlot(t *testing.T) {
	reg := NewRegistry(1)
	c, _ := reg.Create(&loopback{})
	reg.Destroy(c)
	if reg.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", reg.Len())
	}
	if _, err := reg.Create(&loopback{}); err != nil {
		t.Fatalf("Create after Destroy: %v", err)
	}
}

func TestSendWritesFramedLine(t *testing.T) {
	lb := &loopback{}
	reg := NewRegistry(1)
	c, _ := reg.Create(lb)

	c.Send("JOINED", "alice")
	if got, want := lb.String(), "##JOINED|alice\n"; got != want {
		t.Fatalf("wrote %q, want %q", got, want)
	}
}

func TestSendOnDisconnectedIsNoop(t *testing.T) {
	lb := &loopback{}
	reg := NewRegistry(1)
	c, _ := reg.Create(lb)
	c.Connected = false

	c.Send("PING", "")
	if lb.Len() != 0 {
		t.Fatalf("expected no write, got %q", lb.String())
	}
}

func TestSendOnNilClientIsNoop(t *testing.T) {
	var c *Client
	c.Send("PING", "") // must not panic
}

func TestSendMarksDeadOnWriteError(t *testing.T) {
	reg := NewRegistry(1)
	c, _ := reg.Create(failWriter{})
	c.Send("PING", "")
	if c.Connected {
		t.Fatal("Connected should be false after a write error")
	}
}

func TestSetNicknameTruncates(t *testing.T) {
	reg := NewRegistry(1)
	c, _ := reg.Create(&loopback{})

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	c.SetNickname(string(long))
	if len(c.Nickname) != 31 {
		t.Fatalf("Nickname length = %d, want 31", len(c.Nickname))
	}
}

type failWriter struct{}

func (failWriter) Read(p []byte) (int, error)  { return 0, io.EOF }
func (failWriter) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }
func (failWriter) Close() error                { return nil }
