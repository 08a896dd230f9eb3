// Package playground hosts a small web page and a websocket endpoint that
// assemble source text on request, for trying the assembler from a browser.
package playground

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/emitter"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/util"
)

type request struct {
	Type   string `json:"type"`
	Source string `json:"source"`
}

type response struct {
	Type        string                 `json:"type"`
	Words       []uint32               `json:"words,omitempty"`
	Data        string                 `json:"data,omitempty"` // base64 of the data bytes
	Listing     []string               `json:"listing,omitempty"`
	Diagnostics []assembler.Diagnostic `json:"diagnostics,omitempty"`
	Line        int                    `json:"line,omitempty"`
	Message     string                 `json:"message,omitempty"`
}

type Server struct {
	assembler *assembler.Assembler
	upgrader  websocket.Upgrader
}

const maxProgramSize = 16 << 20

func NewServer(cfg assembler.Config) *Server {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = maxProgramSize
	}
	return &Server{
		assembler: assembler.New(cfg),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleSocket)
	mux.HandleFunc("/", handleGetPage)
	return mux
}

func ListenAndServe(addr string, cfg assembler.Config) error {
	util.Infof("Connect to the assembler playground at http://localhost%s", addr)
	return errors.Wrapf(http.ListenAndServe(addr, NewServer(cfg).Handler()), "serve %s", addr)
}

// assemble answers one request. Assembly errors become an "error" response
// rather than a Go error.
func (s *Server) assemble(source string) response {
	res, err := s.assembler.Assemble(source)
	if err != nil {
		resp := response{Type: "error", Message: err.Error()}
		if ae, ok := assembler.AsAssemblyError(err); ok {
			resp.Line = ae.Line
			resp.Message = ae.Message
			resp.Diagnostics = []assembler.Diagnostic{ae.Diagnostic()}
		}
		return resp
	}

	listing, err := emitter.Lines(res, emitter.Options{Mode: emitter.ModeList})
	if err != nil {
		return response{Type: "error", Message: err.Error()}
	}
	return response{
		Type:        "result",
		Words:       res.ProgramText(),
		Data:        base64.StdEncoding.EncodeToString(res.DataBytes()),
		Listing:     listing,
		Diagnostics: res.Diagnostics,
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.Warnf("playground: upgrade: %v", err)
		return
	}
	defer conn.Close()

	var wsMutex sync.Mutex
	var pending sync.WaitGroup
	defer pending.Wait()
	send := func(resp response) {
		wsMutex.Lock()
		defer wsMutex.Unlock()
		if err := conn.WriteJSON(resp); err != nil {
			util.LogF("playground: write: %v", err)
		}
	}

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			util.LogF("playground: read: %v", err)
			return
		}

		var req request
		if err := json.Unmarshal(messageBytes, &req); err != nil {
			send(response{Type: "error", Message: "malformed message: " + err.Error()})
			continue
		}

		switch req.Type {
		case "assemble":
			pending.Add(1)
			go func(source string) {
				defer pending.Done()
				send(s.assemble(source))
			}(req.Source)
		default:
			send(response{Type: "error", Message: "unknown message type: " + req.Type})
		}
	}
}

func handleGetPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(htmlPage))
}

var htmlPage = `<html>
<head>
	<title>RV32I Assembler</title>
</head>
<body style="background-color: #1E1E1E; color: white;">
	<h1 style="display: inline-block;">RV32I Assembler</h1>
	<button id="assembleButton" style="margin-left: 50px; height: 40px; width: 100px;">ASSEMBLE</button>
	<br/>
	<textarea id="source" style="width: 980px; height: 300px; font-family: monospace;"></textarea>
	<h2>Output</h2>
	<pre id="output" style="width: 980px; padding: 10px; background-color: black; min-height: 200px; border: 2px solid white;"></pre>

	<script>
		var socket = new WebSocket("ws://" + location.host + "/ws");

		socket.onmessage = function(event) {
			var data = JSON.parse(event.data);
			var out = document.getElementById("output");
			if (data.type == "result") {
				out.textContent = (data.listing || []).join("\n");
			} else {
				out.textContent = (data.line ? "line " + data.line + ": " : "") + data.message;
			}
		};

		document.getElementById("assembleButton").onclick = function() {
			socket.send(JSON.stringify({
				type: "assemble",
				source: document.getElementById("source").value
			}));
		};
	</script>
</body>
</html>`
