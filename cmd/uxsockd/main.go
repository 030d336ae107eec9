// Command uxsockd runs a short scripted demo of the socket core: a
// listener socket accepts one connection from a client socket, the
// client sends the server a line of text over the in-memory transport, and the
// resulting metrics snapshot is printed.
//
// This is a demonstration harness, not a production daemon. There is no
// real character device or IPC transport behind it (spec.md §1 scopes
// that out); pkg/transport.MemTransport stands in for one.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/josephrewald/uxsockd/pkg/config"
	"github.com/josephrewald/uxsockd/pkg/control"
	"github.com/josephrewald/uxsockd/pkg/socket"
	"github.com/josephrewald/uxsockd/pkg/transport"
)

func main() {
	configPath := flag.String("config", "", "path to an ini file overriding the default socket sizing")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	sizing, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	var client, server *transport.MemTransport
	table := socket.NewTable(sizing, socket.WithLogger(logger), socket.WithReplier(demoReplier{
		client: func() *transport.MemTransport { return client },
		server: func() *transport.MemTransport { return server },
	}))
	client = transport.NewMemTransport(table, 1, logger)
	server = transport.NewMemTransport(table, 2, logger)
	ctl := control.New(table, control.WithLogger(logger))

	listener, err := server.Open(2)
	if err != nil {
		logger.Error("open listener failed", "error", err)
		os.Exit(1)
	}
	if err := ctl.Socket(listener, socket.TypeStream); err != nil {
		panic(err)
	}
	if err := ctl.Bind(listener, "/tmp/uxsockd-demo.sock"); err != nil {
		panic(err)
	}
	if err := ctl.Listen(listener, 4); err != nil {
		panic(err)
	}

	conn, err := client.Open(1)
	if err != nil {
		panic(err)
	}
	if err := ctl.Socket(conn, socket.TypeStream); err != nil {
		panic(err)
	}
	if err := ctl.Connect(conn, "/tmp/uxsockd-demo.sock", socket.Requester{Endpoint: 1, RequestID: "connect-1"}, true); err != nil {
		panic(err)
	}

	accepted, err := ctl.Accept(listener, 2, socket.Requester{Endpoint: 2, RequestID: "accept-1"}, true)
	if err != nil {
		panic(err)
	}

	if _, err := client.Write(conn, []byte("hello from client\n"), true); err != nil {
		panic(err)
	}

	buf := make([]byte, 256)
	n, err := server.Read(accepted, buf, true)
	if err != nil {
		panic(err)
	}
	fmt.Printf("server received: %s", buf[:n])

	snap := table.Metrics()
	fmt.Printf("metrics: opens=%d closes=%d stream_bytes_in=%d stream_bytes_out=%d\n",
		snap.Opens, snap.Closes, snap.StreamBytesIn, snap.StreamBytesOut)
}

// demoReplier routes Table callbacks to whichever MemTransport owns the
// request's endpoint, since this demo shares one Table between two
// transports. A real front end would register exactly one Replier
// per Table instance.
type demoReplier struct {
	client func() *transport.MemTransport
	server func() *transport.MemTransport
}

func (d demoReplier) endpointOf(endpoint int) *transport.MemTransport {
	if endpoint == 1 {
		return d.client()
	}
	return d.server()
}

func (d demoReplier) ReplyIO(r socket.Requester, n int, err error) {
	d.endpointOf(r.Endpoint).ReplyIO(r, n, err)
}

func (d demoReplier) ReplyControl(r socket.Requester, err error) {
	d.endpointOf(r.Endpoint).ReplyControl(r, err)
}

func (d demoReplier) ReplyAccept(r socket.Requester, accepted socket.Handle, err error) {
	d.endpointOf(r.Endpoint).ReplyAccept(r, accepted, err)
}

func (d demoReplier) ReplySelect(endpoint int, ops socket.OpMask) {
	d.endpointOf(endpoint).ReplySelect(endpoint, ops)
}
