package proto

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/tomasklepac/Tic-tac-toe/clients"
	"github.com/tomasklepac/Tic-tac-toe/conf"
	"github.com/tomasklepac/Tic-tac-toe/rooms"
)

func testConf() *conf.Conf {
	c := conf.Default()
	c.DisconnectGrace = 50 * time.Millisecond
	return c
}

// twoPlayerHarness wires up alice and bob through the full CREATE/
// JOINROOM handshake and returns their pipe client ends plus scanners
// positioned right after the opening exchange. net.Pipe is unbuffered
// and Send holds the client-registry lock across its write, so every
// line is read in the order the server sends it.
func twoPlayerHarness(t *testing.T) (aliceConn, bobConn net.Conn, aliceScn, bobScn *bufio.Scanner, rreg *rooms.Registry) {
	t.Helper()
	c := testConf()
	creg := clients.NewRegistry(8)
	rreg = rooms.NewRegistry(4, nil)

	aServer, aClient := net.Pipe()
	MakeClient(aServer, c, creg, rreg)
	aliceScn = bufio.NewScanner(aClient)

	drain(t, aliceScn) // HELLO
	write(t, aClient, "##JOIN|alice")
	drain(t, aliceScn) // JOINED
	drain(t, aliceScn) // SESSION

	bServer, bClient := net.Pipe()
	MakeClient(bServer, c, creg, rreg)
	bobScn = bufio.NewScanner(bClient)

	drain(t, bobScn) // HELLO
	write(t, bClient, "##JOIN|bob")
	drain(t, bobScn) // JOINED
	drain(t, bobScn) // SESSION

	write(t, aClient, "##CREATE|r1")
	drain(t, aliceScn) // CREATED|0|r1

	write(t, bClient, "##JOINROOM|0")
	for _, want := range []string{"CLEAR", "START", "SYMBOL"} {
		line := drain(t, aliceScn)
		if !contains(line, want) {
			t.Fatalf("alice: got %q, want prefix containing %q", line, want)
		}
		line = drain(t, bobScn)
		if !contains(line, want) {
			t.Fatalf("bob: got %q, want prefix containing %q", line, want)
		}
	}
	drain(t, aliceScn) // TURN|Your move (alice is p1/X, moves first)

	return aClient, bClient, aliceScn, bobScn, rreg
}

func write(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func drain(t *testing.T, scn *bufio.Scanner) string {
	t.Helper()
	if !scn.Scan() {
		t.Fatalf("scan: %v", scn.Err())
	}
	return scn.Text()
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func TestJoinHandshake(t *testing.T) {
	c := testConf()
	creg := clients.NewRegistry(8)
	rreg := rooms.NewRegistry(4, nil)

	server, client := net.Pipe()
	MakeClient(server, c, creg, rreg)
	scn := bufio.NewScanner(client)

	if got := drain(t, scn); got != "##HELLO|" {
		t.Fatalf("greeting = %q, want ##HELLO|", got)
	}

	write(t, client, "##JOIN|alice")
	if got := drain(t, scn); got != "##JOINED|alice" {
		t.Fatalf("got %q, want ##JOINED|alice", got)
	}
	session := drain(t, scn)
	if !contains(session, "##SESSION|") {
		t.Fatalf("got %q, want a SESSION line", session)
	}
}

func TestFullRoundToWin(t *testing.T) {
	aClient, bClient, aliceScn, bobScn, _ := twoPlayerHarness(t)

	moves := []struct {
		conn net.Conn
		line string
	}{
		{aClient, "##MOVE|0|0"}, {bClient, "##MOVE|0|1"},
		{aClient, "##MOVE|1|0"}, {bClient, "##MOVE|1|1"},
		{aClient, "##MOVE|2|0"},
	}
	for _, m := range moves {
		write(t, m.conn, m.line)
		drain(t, aliceScn) // MOVE broadcast
		drain(t, bobScn)   // MOVE broadcast
		if m.conn == aClient && m.line != "##MOVE|2|0" {
			drain(t, bobScn) // TURN|Your move for bob
		} else if m.conn == bClient {
			drain(t, aliceScn) // TURN|Your move for alice
		}
	}

	if got := drain(t, aliceScn); got != "##WIN|You" {
		t.Fatalf("alice got %q, want ##WIN|You", got)
	}
	if got := drain(t, bobScn); !contains(got, "##LOSE|alice") {
		t.Fatalf("bob got %q, want ##LOSE|alice", got)
	}
}

func TestMoveOutOfRangeStrikes(t *testing.T) {
	aClient, _, aliceScn, _, _ := twoPlayerHarness(t)

	write(t, aClient, "##MOVE|5|5")
	if got := drain(t, aliceScn); !contains(got, "##ERROR|Invalid MOVE format") {
		t.Fatalf("got %q, want an Invalid MOVE format error", got)
	}

	write(t, aClient, "##MOVE|5|5")
	if got := drain(t, aliceScn); !contains(got, "##ERROR|Invalid MOVE format") {
		t.Fatalf("got %q, want an Invalid MOVE format error", got)
	}

	write(t, aClient, "##MOVE|5|5")
	if got := drain(t, aliceScn); !contains(got, "##ERROR|Invalid MOVE format") {
		t.Fatalf("third strike: got %q", got)
	}
	if got := drain(t, aliceScn); !contains(got, "Too many invalid messages") {
		t.Fatalf("got %q, want the quota message", got)
	}
}

func TestUnknownTagStrikesAndDisconnects(t *testing.T) {
	c := testConf()
	creg := clients.NewRegistry(8)
	rreg := rooms.NewRegistry(4, nil)

	server, client := net.Pipe()
	MakeClient(server, c, creg, rreg)
	scn := bufio.NewScanner(client)

	drain(t, scn) // HELLO
	for i := 0; i < 2; i++ {
		write(t, client, "##BOGUS|")
		if got := drain(t, scn); !contains(got, "##ERROR|UNKNOWN_CMD") {
			t.Fatalf("strike %d: got %q", i, got)
		}
	}
	write(t, client, "##BOGUS|")
	if got := drain(t, scn); !contains(got, "##ERROR|UNKNOWN_CMD") {
		t.Fatalf("final strike: got %q", got)
	}
	if got := drain(t, scn); !contains(got, "Too many invalid messages") {
		t.Fatalf("got %q, want the quota message", got)
	}
}
