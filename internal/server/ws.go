package server

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/observability"
	"github.com/jsonviz/jsonviz/pkg/worker"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Frame codecs accepted by the codec query parameter of /v1/ws.
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// frameCodec encodes outbound messages and decodes inbound requests.
type frameCodec struct {
	kind      int // websocket message type of outbound frames
	marshal   func(v any) ([]byte, error)
	unmarshal func(data []byte, v any) error
}

var codecs = map[string]frameCodec{
	CodecJSON: {
		kind:      websocket.TextMessage,
		marshal:   json.Marshal,
		unmarshal: json.Unmarshal,
	},
	CodecMsgpack: {
		kind:      websocket.BinaryMessage,
		marshal:   marshalMsgpack,
		unmarshal: unmarshalMsgpack,
	},
}

// Msgpack frames reuse the json field names so both codecs carry the same
// message shape.
func marshalMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalMsgpack(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func codecFor(name string) (frameCodec, error) {
	if name == "" {
		name = CodecJSON
	}
	c, ok := codecs[strings.ToLower(name)]
	if !ok {
		return frameCodec{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported codec %q (want json or msgpack)", name)
	}
	return c, nil
}

func (c frameCodec) decodeRequest(data []byte) (worker.Request, error) {
	var req worker.Request
	if err := c.unmarshal(data, &req); err != nil {
		return worker.Request{}, errors.Wrap(errors.ErrCodeInvalidRequest, err, "decode request")
	}
	return req, nil
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts requests without an Origin header, origins listed in
// AllowedOrigins, and same-host origins when the list is empty.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	allowed := s.cfg.AllowedOrigins
	if len(allowed) == 0 {
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

// handleStream upgrades the connection and runs one worker for it.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	c, err := codecFor(r.URL.Query().Get("codec"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	connID := uuid.NewString()
	hooks := observability.Server()
	hooks.OnStreamOpen(r.Context(), connID)
	start := time.Now()

	err = s.stream(r.Context(), conn, c, connID)
	hooks.OnStreamClose(r.Context(), connID, time.Since(start), err)
}

// stream reads requests until the peer goes away and forwards every worker
// message to the peer.
func (s *Server) stream(ctx context.Context, conn *websocket.Conn, c frameCodec, connID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := s.logger.With("conn", connID)
	logger.Debug("stream opened", "remote", conn.RemoteAddr().String())

	cfg := s.cfg.Worker
	cfg.Logger = logger
	wk := worker.New(cfg)
	wk.Start(ctx)

	replies := make(chan worker.Message, 8)
	writeDone := make(chan error, 1)
	go func() {
		writeDone <- s.writeLoop(ctx, cancel, conn, c, wk.Messages(), replies)
	}()

	conn.SetReadLimit(s.cfg.MaxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var readErr error
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				readErr = err
				logger.Warn("websocket read failed", "err", err)
			}
			break
		}

		req, err := c.decodeRequest(data)
		if err == nil {
			err = wk.Handle(ctx, req)
		}
		if err != nil {
			logger.Debug("request rejected", "request", req.Payload.RequestID, "err", err)
			select {
			case replies <- rejection(req, err, wk.State(req.Payload.RequestID)):
			case <-ctx.Done():
			}
		}
	}

	cancel()
	_ = wk.Close()
	writeErr := <-writeDone
	logger.Debug("stream closed")
	if readErr != nil {
		return readErr
	}
	return writeErr
}

// writeLoop is the only writer of conn. It returns when the worker's
// channel closes, ctx is done, or a write fails, and closes conn on exit so
// the reader unblocks.
func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, c frameCodec, msgs <-chan worker.Message, replies <-chan worker.Message) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = conn.Close()
	}()

	write := func(m worker.Message) error {
		data, err := c.marshal(m)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode %s message", m.Type)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(c.kind, data)
	}

	for {
		select {
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := write(m); err != nil {
				return err
			}
		case m := <-replies:
			if err := write(m); err != nil {
				return err
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return nil
		}
	}
}

// rejection reports a request the worker refused to accept. The request ID
// is echoed only when the worker holds no lifecycle for it; a queued,
// running or finished ID already has, or will get, its own terminal
// message, so the rejection goes out unaddressed instead.
func rejection(req worker.Request, err error, state worker.State) worker.Message {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInvalidRequest
	}
	m := worker.Message{
		Type:  worker.TypeError,
		Error: errors.UserMessage(err),
		Code:  code,
	}
	if state == worker.StateIdle {
		m.RequestID = req.Payload.RequestID
	}
	return m
}
