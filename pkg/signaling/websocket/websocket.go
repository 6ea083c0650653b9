// Package websocket drives a single signaling connection at the frame level.
// It decouples the wire from the control channel: inbound text frames are
// delivered on Inbox, outbound frames are consumed from Outbox, and protocol
// control frames (ping/pong/close) are handled in place.
package websocket

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	log "github.com/sirupsen/logrus"
)

// closeWriteTimeout bounds the close frame write towards a peer that has
// stopped reading.
const closeWriteTimeout = 5 * time.Second

type Flag int

const (
	FlagContinue Flag = iota
	FlagCloseGracefully
	FlagTerminate
)

type OutboxMessage struct {
	Flag Flag
	Data []byte
}

type InboxMessage struct {
	Data []byte
}

// Driver owns the two frame workers of one connection. The terminate channel
// is closed exactly once, when either worker exits; the HTTP handler waits
// on it before releasing the hijacked connection.
type Driver struct {
	conn   net.Conn
	Inbox  chan *InboxMessage
	Outbox chan *OutboxMessage

	terminateCh    chan<- struct{}
	terminatedOnce sync.Once

	stopCh   chan struct{}
	stopOnce sync.Once

	connOnce sync.Once

	wg sync.WaitGroup
}

func NewDriver(conn net.Conn, terminateCh chan<- struct{}) *Driver {
	return &Driver{
		conn:        conn,
		Inbox:       make(chan *InboxMessage, 100),
		Outbox:      make(chan *OutboxMessage, 100),
		terminateCh: terminateCh,
		stopCh:      make(chan struct{}),
	}
}

func (d *Driver) Start() {
	d.wg.Add(1)
	go d.inboxWorker()
	d.wg.Add(1)
	go d.outboxWorker()
}

// Stop asks the workers to exit without waiting for them. Closing the
// connection unblocks a reader parked in NextFrame on a silent peer.
func (d *Driver) Stop() {
	d.safeCloseTerminate()
	d.safeCloseStop()
	d.safeCloseConn()
}

// Close blocks until both workers have exited.
func (d *Driver) Close() {
	d.wg.Wait()
	log.Debug("websocket driver closed")
}

// workerExit tears the whole driver down when either worker exits. The
// connection is closed here so the sibling worker cannot stay blocked on a
// peer that never speaks again.
func (d *Driver) workerExit() {
	defer d.wg.Done()
	d.safeCloseTerminate()
	d.safeCloseStop()
	d.safeCloseConn()
}

func (d *Driver) safeCloseTerminate() {
	d.terminatedOnce.Do(func() {
		close(d.terminateCh)
	})
}

func (d *Driver) safeCloseStop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
	})
}

func (d *Driver) safeCloseConn() {
	d.connOnce.Do(func() {
		if err := d.conn.Close(); err != nil {
			log.Debugf("websocket connection close error: %v", err)
		}
	})
}

func (d *Driver) inboxWorker() {
	defer d.workerExit()
	// Closing Inbox ends the control channel run loop.
	defer close(d.Inbox)

	state := ws.StateServerSide
	controlHandler := wsutil.ControlFrameHandler(d.conn, state)

	r := &wsutil.Reader{
		Source:         d.conn,
		State:          state,
		CheckUTF8:      true,
		OnIntermediate: controlHandler,
	}

	for {
		h, err := r.NextFrame()
		if err != nil {
			// Includes the remote hanging up without a close frame. The
			// handler must not see an error here, the hijacked connection is
			// torn down via the terminate channel.
			log.Debugf("websocket read frame error: %v", err)
			return
		}

		if h.OpCode.IsControl() {
			if h.OpCode == ws.OpClose {
				log.Debug("websocket connection closed by client")
				return
			}
			if err = controlHandler(h, r); err != nil {
				log.Errorf("websocket control frame error: %v", err)
				return
			}
			continue
		}

		payload, err := io.ReadAll(r)
		if err != nil {
			log.Errorf("websocket read error: %v", err)
			return
		}

		select {
		case d.Inbox <- NewInboxMessage(payload):
		case <-d.stopCh:
			return
		}
	}
}

func (d *Driver) outboxWorker() {
	defer d.workerExit()

	state := ws.StateServerSide
	w := wsutil.NewWriter(d.conn, state, 0)

	for {
		select {
		case res := <-d.Outbox:
			// A terminating message must not stall on a peer that stopped
			// reading.
			if res.Flag != FlagContinue {
				d.conn.SetWriteDeadline(time.Now().Add(closeWriteTimeout))
			}

			if err := writeText(d.conn, w, state, res.Data); err != nil {
				log.Errorf("websocket write error: %v", err)
				return
			}

			switch res.Flag {
			case FlagCloseGracefully:
				if err := writeClose(d.conn, w, state); err != nil {
					log.Errorf("websocket close error: %v", err)
				}
				return
			case FlagTerminate:
				return
			}
		case <-d.stopCh:
			return
		}
	}
}

func writeText(conn net.Conn, w *wsutil.Writer, state ws.State, data []byte) error {
	w.Reset(conn, state, ws.OpText)
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Flush()
}

func writeClose(conn net.Conn, w *wsutil.Writer, state ws.State) error {
	w.Reset(conn, state, ws.OpClose)
	if _, err := w.Write([]byte("")); err != nil {
		return err
	}
	return w.Flush()
}

func NewOutboxMessage(flag Flag, data []byte) *OutboxMessage {
	m := &OutboxMessage{Flag: flag}
	if data != nil {
		m.Data = make([]byte, len(data))
		copy(m.Data, data)
	}
	return m
}

func NewInboxMessage(data []byte) *InboxMessage {
	m := &InboxMessage{}
	if data != nil {
		m.Data = make([]byte, len(data))
		copy(m.Data, data)
	}
	return m
}
