package playground

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
)

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewServer(assembler.DefaultConfig()).Handler())
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req interface{}) response {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}
	var resp response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestAssembleOverWebsocket(t *testing.T) {
	conn := dial(t)
	resp := roundTrip(t, conn, request{Type: "assemble", Source: "add a0, a1, a2\n.byte 1, 2"})
	if resp.Type != "result" {
		t.Fatalf("expected a result, got %+v", resp)
	}
	if len(resp.Words) != 1 || resp.Words[0] != 0x00C58533 {
		t.Errorf("unexpected words %x", resp.Words)
	}
	if data, _ := base64.StdEncoding.DecodeString(resp.Data); string(data) != "\x01\x02" {
		t.Errorf("unexpected data % x", data)
	}
	if len(resp.Listing) != 2 || !strings.HasPrefix(resp.Listing[0], "add a0, a1, a2") {
		t.Errorf("unexpected listing %q", resp.Listing)
	}
}

func TestAssemblyErrorResponse(t *testing.T) {
	conn := dial(t)
	resp := roundTrip(t, conn, request{Type: "assemble", Source: "nop\nfoo a0"})
	if resp.Type != "error" || resp.Line != 2 || len(resp.Diagnostics) != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestOversizedProgram(t *testing.T) {
	conn := dial(t)
	resp := roundTrip(t, conn, request{Type: "assemble", Source: ".data\n.space 0xFFFFFFF0"})
	if resp.Type != "error" || resp.Line != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestUnknownMessageType(t *testing.T) {
	conn := dial(t)
	resp := roundTrip(t, conn, map[string]string{"type": "run"})
	if resp.Type != "error" || !strings.Contains(resp.Message, "run") {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestGetPage(t *testing.T) {
	srv := httptest.NewServer(NewServer(assembler.DefaultConfig()).Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK || !strings.Contains(string(body), "RV32I Assembler") {
		t.Errorf("status %d body %q", res.StatusCode, body)
	}
}
