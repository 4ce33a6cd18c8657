// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/commonlog"

	"dad/internal/service"
)

// main starts the decompile-as-a-service daemon over stdio by default,
// or over websocket when -ws-addr is given: a handler wired up front,
// then a blocking serve loop, the same shape a language server's stdio
// entry point takes, but over plain JSON-RPC 2.0 since there is no text
// document here to justify a full Language Server Protocol stack.
func main() {
	wsAddr := flag.String("ws-addr", "", "serve over websocket at this address instead of stdio")
	flag.Parse()

	commonlog.Configure(1, nil)
	handler := service.NewHandler()

	if *wsAddr == "" {
		runStdio(handler)
		return
	}
	runWebSocket(*wsAddr, handler)
}

func runStdio(handler *service.Handler) {
	stream := jsonrpc2.NewBufferedStream(stdioReadWriteCloser{}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(context.Background(), stream, handler)
	<-conn.DisconnectNotify()
}

func runWebSocket(addr string, handler *service.Handler) {
	upgrader := websocket.Upgrader{}
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %s", err)
			return
		}
		stream := service.NewWebSocketStream(wsConn)
		conn := jsonrpc2.NewConn(r.Context(), stream, handler)
		<-conn.DisconnectNotify()
	})
	log.Printf("dad-service listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("dad-service: %s", err)
	}
}

// stdioReadWriteCloser adapts os.Stdin/os.Stdout to a single
// io.ReadWriteCloser for jsonrpc2.NewBufferedStream.
type stdioReadWriteCloser struct{}

func (stdioReadWriteCloser) Read(p []byte) (int, error) { return os.Stdin.Read(p) }
func (stdioReadWriteCloser) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioReadWriteCloser) Close() error { return nil }
