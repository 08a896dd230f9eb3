package languageServer

import (
	"context"
	"strings"

	"github.com/sourcegraph/jsonrpc2"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/util"
)

type document struct {
	item TextDocumentItem
	// last successful assembly; hover keeps working while the text has errors
	result *assembler.AssembledResult
}

// diagnosticsFor lists the warnings of a successful run, or the single error
// that stopped a failed one.
func diagnosticsFor(res *assembler.AssembledResult, err error) []assembler.Diagnostic {
	diagnostics := make([]assembler.Diagnostic, 0)
	if err == nil {
		return append(diagnostics, res.Diagnostics...)
	}
	if ae, ok := assembler.AsAssemblyError(err); ok {
		return append(diagnostics, ae.Diagnostic())
	}
	return append(diagnostics, assembler.Diagnostic{
		Message:  err.Error(),
		Source:   "Assembler",
		Severity: assembler.Error,
	})
}

// assemble runs the assembler over the stored text of uri. The caller holds h.mu.
func (h *handler) assemble(uri DocumentUri) []assembler.Diagnostic {
	doc, ok := h.documents[uri]
	if !ok {
		return make([]assembler.Diagnostic, 0)
	}
	res, err := h.assembler.Assemble(doc.item.Text)
	if err == nil {
		doc.result = res
	} else {
		util.LogF("RV32I Language Server: %s: %v", uri, err)
	}
	return diagnosticsFor(res, err)
}

func (h *handler) publish(ctx context.Context, conn *jsonrpc2.Conn, uri DocumentUri, version int, diagnostics []assembler.Diagnostic) {
	err := conn.Notify(ctx, "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: diagnostics,
	})
	if err != nil {
		util.Warnf("RV32I Language Server: publish diagnostics for %s: %v", uri, err)
	}
}

func (h *handler) didOpen(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DidOpenTextDocumentParams{}
	if !decodeParams(ctx, conn, req, &params) {
		return
	}
	uri := params.TextDocument.URI

	h.mu.Lock()
	h.documents[uri] = &document{item: params.TextDocument}
	diagnostics := h.assemble(uri)
	h.mu.Unlock()

	h.publish(ctx, conn, uri, params.TextDocument.Version, diagnostics)
}

func (h *handler) didChange(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DidChangeTextDocumentParams{}
	if !decodeParams(ctx, conn, req, &params) || len(params.ContentChanges) == 0 {
		return
	}
	uri := params.TextDocument.URI

	h.mu.Lock()
	doc, ok := h.documents[uri]
	if !ok {
		doc = &document{item: TextDocumentItem{URI: uri, LanguageID: "riscv"}}
		h.documents[uri] = doc
	}
	// full sync: the last change holds the whole text
	doc.item.Text = params.ContentChanges[len(params.ContentChanges)-1].Text
	doc.item.Version = params.TextDocument.Version
	diagnostics := h.assemble(uri)
	h.mu.Unlock()

	h.publish(ctx, conn, uri, params.TextDocument.Version, diagnostics)
}

func (h *handler) didClose(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DidCloseTextDocumentParams{}
	if !decodeParams(ctx, conn, req, &params) {
		return
	}
	h.mu.Lock()
	delete(h.documents, params.TextDocument.URI)
	h.mu.Unlock()
}

func (h *handler) diagnostic(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DocumentDiagnosticParams{}
	if !decodeParams(ctx, conn, req, &params) {
		return
	}
	h.mu.Lock()
	diagnostics := h.assemble(params.TextDocument.URI)
	h.mu.Unlock()

	reply(ctx, conn, req, DocumentDiagnosticReport{
		Kind:  "full",
		Items: diagnostics,
	})
}

func (h *handler) hover(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := TextDocumentPositionParams{}
	if !decodeParams(ctx, conn, req, &params) {
		return
	}

	h.mu.Lock()
	var res *assembler.AssembledResult
	if doc, ok := h.documents[params.TextDocument.URI]; ok {
		res = doc.result
	}
	h.mu.Unlock()

	if res == nil {
		reply(ctx, conn, req, nil)
		return
	}
	text, ok := res.EvaluateHover(params.Position)
	if !ok {
		reply(ctx, conn, req, nil)
		return
	}
	reply(ctx, conn, req, Hover{
		Contents: MarkupContent{Kind: "markdown", Value: text},
	})
}

func (h *handler) willSaveWaitUntil(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := WillSaveTextDocumentParams{}
	if !decodeParams(ctx, conn, req, &params) {
		return
	}

	h.mu.Lock()
	doc, ok := h.documents[params.TextDocument.URI]
	var text string
	if ok {
		text = doc.item.Text
	}
	h.mu.Unlock()
	if !ok {
		reply(ctx, conn, req, []TextEdit{})
		return
	}

	lines := strings.Split(text, "\n")
	last := lines[len(lines)-1]
	reply(ctx, conn, req, []TextEdit{{
		Range: assembler.TextRange{
			Start: assembler.TextPosition{Line: 0, Char: 0},
			End:   assembler.TextPosition{Line: len(lines) - 1, Char: len(last)},
		},
		NewText: reformat(text),
	}})
	util.LogF("RV32I Language Server: reformatted %s", params.TextDocument.URI)
}
