package socket

import "github.com/josephrewald/uxsockd/pkg/config"

// fakeReplier records every callback it receives, for tests to assert
// against instead of wiring a real transport.
type fakeReplier struct {
	io      []ioReply
	control []ctlReply
	accepts []acceptReply
	selects []selReply
}

type ioReply struct {
	req Requester
	n   int
	err error
}

type ctlReply struct {
	req Requester
	err error
}

type acceptReply struct {
	req      Requester
	accepted Handle
	err      error
}

type selReply struct {
	endpoint int
	ops      OpMask
}

func (f *fakeReplier) ReplyIO(r Requester, n int, err error) {
	f.io = append(f.io, ioReply{r, n, err})
}

func (f *fakeReplier) ReplyControl(r Requester, err error) {
	f.control = append(f.control, ctlReply{r, err})
}

func (f *fakeReplier) ReplyAccept(r Requester, accepted Handle, err error) {
	f.accepts = append(f.accepts, acceptReply{r, accepted, err})
}

func (f *fakeReplier) ReplySelect(endpoint int, ops OpMask) {
	f.selects = append(f.selects, selReply{endpoint, ops})
}

func newTestTable() (*Table, *fakeReplier) {
	rep := &fakeReplier{}
	sizing := config.Sizing{BufferSize: 64, TableSize: 16, KMax: 4, UnixPathMax: 108}
	return NewTable(sizing, WithReplier(rep)), rep
}

// linkStream opens two STREAM sockets and wires them as each other's
// peer directly, bypassing the control-plane backlog dance. Useful for
// tests that only care about the read/write data path.
func linkStream(t *Table) (a, b Handle) {
	a, err := t.Open(1)
	if err != nil {
		panic(err)
	}
	b, err = t.Open(2)
	if err != nil {
		panic(err)
	}
	must(t.SetType(a, TypeStream))
	must(t.SetType(b, TypeStream))
	must(t.LinkPeer(a, b))
	return a, b
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
