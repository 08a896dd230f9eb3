package languageServer

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
)

type testClient struct {
	conn        *jsonrpc2.Conn
	diagnostics chan PublishDiagnosticsParams
}

func startServer(t *testing.T) *testClient {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	ctx := context.Background()
	server := Serve(ctx, serverSide, assembler.DefaultConfig())

	c := &testClient{diagnostics: make(chan PublishDiagnosticsParams, 8)}
	h := jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		if req.Method == "textDocument/publishDiagnostics" {
			var params PublishDiagnosticsParams
			if err := json.Unmarshal(*req.Params, &params); err != nil {
				return nil, err
			}
			c.diagnostics <- params
		}
		return nil, nil
	})
	c.conn = jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}), h)
	t.Cleanup(func() {
		c.conn.Close()
		server.Close()
	})

	var result InitializeResult
	if err := c.conn.Call(ctx, "initialize", InitializeParams{ProcessID: 1}, &result); err != nil {
		t.Fatal(err)
	}
	if !result.Capabilities.HoverProvider || result.Capabilities.TextDocumentSync != TextDocumentSyncFull {
		t.Fatalf("unexpected capabilities %+v", result.Capabilities)
	}
	return c
}

func (c *testClient) open(t *testing.T, uri DocumentUri, text string) PublishDiagnosticsParams {
	t.Helper()
	err := c.conn.Notify(context.Background(), "textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: uri, LanguageID: "riscv", Version: 1, Text: text},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c.nextDiagnostics(t)
}

func (c *testClient) nextDiagnostics(t *testing.T) PublishDiagnosticsParams {
	t.Helper()
	select {
	case d := <-c.diagnostics:
		return d
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for diagnostics")
	}
	return PublishDiagnosticsParams{}
}

func TestDiagnosticsOnOpenAndChange(t *testing.T) {
	c := startServer(t)

	d := c.open(t, "file:///prog.s", "nop\naddi a0, zt, 1")
	if len(d.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", d.Diagnostics)
	}
	diag := d.Diagnostics[0]
	if diag.Severity != assembler.Error || diag.Range.Start.Line != 1 || diag.Message == "" {
		t.Errorf("unexpected diagnostic %+v", diag)
	}

	err := c.conn.Notify(context.Background(), "textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: "file:///prog.s", Version: 2},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: "nop\naddi a0, t0, 1"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	d = c.nextDiagnostics(t)
	if d.Version != 2 || len(d.Diagnostics) != 0 {
		t.Errorf("expected a clean report for version 2, got %+v", d)
	}
}

func TestWarningsArePublished(t *testing.T) {
	c := startServer(t)
	d := c.open(t, "file:///warn.s", "li a0, 0x80000000")
	if len(d.Diagnostics) != 1 || d.Diagnostics[0].Severity != assembler.Warning {
		t.Errorf("expected one warning, got %+v", d.Diagnostics)
	}
}

func TestOversizedDocumentIsRejected(t *testing.T) {
	c := startServer(t)
	d := c.open(t, "file:///big.s", ".data\n.space 0xFFFFFFF0")
	if len(d.Diagnostics) != 1 || d.Diagnostics[0].Severity != assembler.Error {
		t.Errorf("expected one error, got %+v", d.Diagnostics)
	}
}

func TestPullDiagnostics(t *testing.T) {
	c := startServer(t)
	c.open(t, "file:///pull.s", "jal zero, missing")

	var report DocumentDiagnosticReport
	err := c.conn.Call(context.Background(), "textDocument/diagnostic", DocumentDiagnosticParams{
		TextDocument: TextDocumentIdentifier{URI: "file:///pull.s"},
	}, &report)
	if err != nil {
		t.Fatal(err)
	}
	if report.Kind != "full" || len(report.Items) != 1 || !strings.Contains(report.Items[0].Message, "missing") {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestHover(t *testing.T) {
	c := startServer(t)
	c.open(t, "file:///hover.s", "main: addi a0, a0, 1\n      jal zero, main")

	hover := func(line, char int) *Hover {
		var h *Hover
		err := c.conn.Call(context.Background(), "textDocument/hover", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: "file:///hover.s"},
			Position:     assembler.TextPosition{Line: line, Char: char},
		}, &h)
		if err != nil {
			t.Fatal(err)
		}
		return h
	}

	if h := hover(0, 7); h == nil || !strings.Contains(h.Contents.Value, "Add Immediate") {
		t.Errorf("mnemonic hover: %+v", h)
	}
	if h := hover(0, 1); h == nil || !strings.Contains(h.Contents.Value, "label `main`") {
		t.Errorf("label hover: %+v", h)
	}
	if h := hover(0, 5); h != nil {
		t.Errorf("expected no hover on whitespace, got %+v", h)
	}
}

func TestUnknownMethod(t *testing.T) {
	c := startServer(t)
	err := c.conn.Call(context.Background(), "workspace/symbol", struct{}{}, nil)
	rpcErr, ok := err.(*jsonrpc2.Error)
	if !ok || rpcErr.Code != jsonrpc2.CodeMethodNotFound {
		t.Errorf("expected method not found, got %v", err)
	}
}

func TestReformat(t *testing.T) {
	in := "main:  addi  a0, a0, 1 # bump\n\tret\n.data\nbuf: .ascii \"a  b\"\n# note"
	want := "main: addi a0, a0, 1 # bump\n      ret\n.data\nbuf: .ascii \"a  b\"\n# note"
	if got := reformat(in); got != want {
		t.Errorf("got\n%s\nexpected\n%s", got, want)
	}
}
