// Package languageServer speaks the Language Server Protocol over jsonrpc2,
// publishing assembler diagnostics and hover text for RV32I sources.
package languageServer

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sourcegraph/jsonrpc2"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/util"
)

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

// Serve runs a server on rwc. The returned connection's DisconnectNotify
// channel closes when the client goes away.
func Serve(ctx context.Context, rwc io.ReadWriteCloser, cfg assembler.Config) *jsonrpc2.Conn {
	return jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}), newHandler(cfg))
}

// ListenAndServe serves a single client over stdin and stdout.
func ListenAndServe(cfg assembler.Config) {
	<-Serve(context.Background(), stdrwc{}, cfg).DisconnectNotify()
}

// ListenAndServeTCP accepts clients on addr, each with its own document set.
func ListenAndServeTCP(addr string, cfg assembler.Config) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "could not bind to address %s", addr)
	}
	defer lis.Close()

	util.Infof("RV32I Language Server: listening for TCP connections on %s", addr)

	connectionCount := 0
	for {
		conn, err := lis.Accept()
		if err != nil {
			return errors.Wrap(err, "failed to accept incoming connection")
		}
		connectionCount++
		connectionID := connectionCount
		util.Infof("RV32I Language Server: received incoming connection #%d", connectionID)

		rpcConn := Serve(context.Background(), conn, cfg)
		go func() {
			<-rpcConn.DisconnectNotify()
			util.Infof("RV32I Language Server: connection #%d closed", connectionID)
		}()
	}
}

type handler struct {
	assembler *assembler.Assembler

	mu        sync.Mutex
	documents map[DocumentUri]*document
	shutdown  bool
}

// maxDocumentSize bounds the image of a document assembled on every keystroke.
const maxDocumentSize = 16 << 20

func newHandler(cfg assembler.Config) *handler {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = maxDocumentSize
	}
	return &handler{
		assembler: assembler.New(cfg),
		documents: make(map[DocumentUri]*document),
	}
}

func (h *handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	util.LogF("RV32I Language Server: received request: %s", req.Method)
	switch req.Method {
	case "initialize":
		h.initialize(ctx, conn, req)
	case "initialized":
	case "textDocument/didOpen":
		h.didOpen(ctx, conn, req)
	case "textDocument/didChange":
		h.didChange(ctx, conn, req)
	case "textDocument/didClose":
		h.didClose(ctx, conn, req)
	case "textDocument/diagnostic":
		h.diagnostic(ctx, conn, req)
	case "textDocument/willSaveWaitUntil":
		h.willSaveWaitUntil(ctx, conn, req)
	case "textDocument/hover":
		h.hover(ctx, conn, req)

	case "shutdown":
		h.mu.Lock()
		h.shutdown = true
		h.mu.Unlock()
		reply(ctx, conn, req, nil)
	case "exit":
		conn.Close()

	default:
		if !req.Notif {
			conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeMethodNotFound,
				Message: "method not supported: " + req.Method,
			})
		}
	}
}

// decodeParams unmarshals the request parameters into v. On failure it
// answers the request with an error and returns false.
func decodeParams(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, v interface{}) bool {
	if req.Params != nil && json.Unmarshal(*req.Params, v) == nil {
		return true
	}
	util.Warnf("RV32I Language Server: invalid parameters for %s", req.Method)
	if !req.Notif {
		conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: "invalid parameters",
		})
	}
	return false
}

func reply(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, result interface{}) {
	if req.Notif {
		return
	}
	if err := conn.Reply(ctx, req.ID, result); err != nil {
		util.Warnf("RV32I Language Server: reply to %s failed: %v", req.Method, err)
	}
}

func (h *handler) initialize(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := InitializeParams{}
	if !decodeParams(ctx, conn, req, &params) {
		return
	}

	result := InitializeResult{}
	result.Capabilities.TextDocumentSync = TextDocumentSyncFull
	result.Capabilities.HoverProvider = true
	result.Capabilities.DiagnosticProvider = &DiagnosticOptions{}
	result.ServerInfo.Name = "rv32i-assembler"
	reply(ctx, conn, req, result)

	registerRemainingCapabilities(conn)
}

// registerRemainingCapabilities asks the client for format-on-save. The call
// runs in its own goroutine because the client's reply arrives on the same
// read loop that is running this handler.
func registerRemainingCapabilities(conn *jsonrpc2.Conn) {
	params := RegistrationParams{
		Registrations: []Registration{
			{
				ID:     "textDocumentSync.willSaveWaitUntil",
				Method: "textDocument/willSaveWaitUntil",
				RegisterOptions: TextDocumentRegistrationOptions{
					DocumentSelector: DocumentSelector{
						{Scheme: "file", Language: "riscv"},
					},
				},
			},
		},
	}

	go func() {
		if err := conn.Call(context.Background(), "client/registerCapability", params, nil); err != nil {
			util.LogF("RV32I Language Server: capability registration failed: %v", err)
			return
		}
		util.LogF("RV32I Language Server: registered remaining capabilities")
	}()
}
