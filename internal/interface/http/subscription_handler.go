package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-graphql-blog/internal/application"
)

// Subprotocol is the subscriptions-transport-ws protocol name.
const Subprotocol = "graphql-ws"

// Message types of the graphql-ws protocol.
const (
	msgConnectionInit      = "connection_init"
	msgConnectionAck       = "connection_ack"
	msgConnectionError     = "connection_error"
	msgConnectionKeepAlive = "ka"
	msgConnectionTerminate = "connection_terminate"
	msgStart               = "start"
	msgStop                = "stop"
	msgData                = "data"
	msgError               = "error"
	msgComplete            = "complete"
)

const (
	readLimit    = 64 << 10
	writeTimeout = 10 * time.Second
)

// Subscriber starts subscription operations; *graphql.Schema satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, queryString string, operationName string, variables map[string]interface{}) (<-chan interface{}, error)
}

type SubscriptionHandler struct {
	Schema    Subscriber
	Logger    *logrus.Logger
	KeepAlive time.Duration
	Upgrader  websocket.Upgrader
}

func NewSubscriptionHandler(schema Subscriber, logger *logrus.Logger, origins []string) *SubscriptionHandler {
	return &SubscriptionHandler{
		Schema:    schema,
		Logger:    logger,
		KeepAlive: 15 * time.Second,
		Upgrader: websocket.Upgrader{
			Subprotocols: []string{Subprotocol},
			CheckOrigin:  checkOrigin(origins),
		},
	}
}

// checkOrigin accepts any origin when none are configured, mirroring the
// CORS setup.
func checkOrigin(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

type operationMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type startPayload struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func (h *SubscriptionHandler) Serve(c *gin.Context) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log().WithError(err).Debug("websocket upgrade failed")
		return
	}
	s := &session{
		h:    h,
		conn: conn,
		ops:  make(map[string]context.CancelFunc),
		log:  h.log().WithField("request_id", c.GetString("request_id")),
	}
	s.run(c.Request.Context())
}

func (h *SubscriptionHandler) log() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// session is one websocket connection. All writes go through send.
type session struct {
	h    *SubscriptionHandler
	conn *websocket.Conn
	log  *logrus.Entry

	writeMu sync.Mutex
	broken  bool

	mu  sync.Mutex
	ctx context.Context // carries the connection credential once initialised
	ops map[string]context.CancelFunc
	wg  sync.WaitGroup
}

func (s *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer func() {
		cancel()
		s.wg.Wait()
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(readLimit)
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.log.WithError(err).Debug("websocket read failed")
			}
			return
		}
		var msg operationMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.send(operationMessage{Type: msgConnectionError, Payload: errorPayload("message is not valid JSON")})
			continue
		}
		switch msg.Type {
		case msgConnectionInit:
			s.init(ctx, msg.Payload)
		case msgStart:
			s.start(msg)
		case msgStop:
			s.stop(msg.ID)
		case msgConnectionTerminate:
			return
		default:
			s.send(operationMessage{ID: msg.ID, Type: msgError, Payload: errorPayload("unknown message type " + msg.Type)})
		}
	}
}

// init records the credential of the init payload and acknowledges. The
// credential is verified per operation, so a bad token only fails the
// operations that need one.
func (s *session) init(ctx context.Context, raw json.RawMessage) {
	var payload map[string]interface{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &payload); err != nil {
			s.send(operationMessage{Type: msgConnectionError, Payload: errorPayload("invalid connection_init payload")})
			return
		}
	}
	credential := ""
	for _, key := range []string{"Authorization", "authorization"} {
		if v, ok := payload[key].(string); ok && v != "" {
			credential = v
			break
		}
	}

	s.mu.Lock()
	first := s.ctx == nil
	s.ctx = application.WithConnectionCredential(ctx, credential)
	s.mu.Unlock()

	s.send(operationMessage{Type: msgConnectionAck})
	if first && s.h.KeepAlive > 0 {
		s.send(operationMessage{Type: msgConnectionKeepAlive})
		s.wg.Add(1)
		go s.keepAlive(ctx)
	}
}

func (s *session) keepAlive(ctx context.Context) {
	defer s.wg.Done()
	t := time.NewTicker(s.h.KeepAlive)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !s.send(operationMessage{Type: msgConnectionKeepAlive}) {
				return
			}
		}
	}
}

func (s *session) start(msg operationMessage) {
	var p startPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Query == "" {
		s.send(operationMessage{ID: msg.ID, Type: msgError, Payload: errorPayload("invalid start payload")})
		return
	}

	s.mu.Lock()
	if s.ctx == nil {
		s.mu.Unlock()
		s.send(operationMessage{ID: msg.ID, Type: msgError, Payload: errorPayload("connection not initialised")})
		return
	}
	if msg.ID == "" || s.ops[msg.ID] != nil {
		s.mu.Unlock()
		s.send(operationMessage{ID: msg.ID, Type: msgError, Payload: errorPayload("operation id missing or already in use")})
		return
	}
	opCtx, cancel := context.WithCancel(s.ctx)
	s.ops[msg.ID] = cancel
	s.mu.Unlock()

	stream, err := s.h.Schema.Subscribe(opCtx, p.Query, p.OperationName, p.Variables)
	if err != nil {
		s.finish(msg.ID)
		s.send(operationMessage{ID: msg.ID, Type: msgError, Payload: errorPayload(err.Error())})
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		failed := false
		for v := range stream {
			res, ok := v.(*graphql.Response)
			if !ok {
				continue
			}
			if len(res.Data) == 0 || string(res.Data) == "null" {
				if len(res.Errors) > 0 {
					// setup failed, e.g. an unknown post or a parse error
					failed = true
					b, _ := json.Marshal(res.Errors[0])
					s.send(operationMessage{ID: msg.ID, Type: msgError, Payload: b})
					continue
				}
			}
			b, err := json.Marshal(res)
			if err != nil {
				s.log.WithError(err).Warn("encode subscription payload failed")
				continue
			}
			s.send(operationMessage{ID: msg.ID, Type: msgData, Payload: b})
		}
		// A client stop or a closed connection ends the stream silently.
		ended := opCtx.Err() == nil
		if s.finish(msg.ID) && ended && !failed {
			s.send(operationMessage{ID: msg.ID, Type: msgComplete})
		}
	}()
}

// stop cancels the operation; its stream then closes.
func (s *session) stop(id string) {
	s.mu.Lock()
	cancel := s.ops[id]
	delete(s.ops, id)
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// finish forgets the operation and reports whether it was still registered.
func (s *session) finish(id string) bool {
	s.mu.Lock()
	cancel, ok := s.ops[id]
	delete(s.ops, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// send writes one message; false means the connection is unusable.
func (s *session) send(msg operationMessage) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.broken {
		return false
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.broken = true
		if !errors.Is(err, websocket.ErrCloseSent) {
			s.log.WithError(err).Debug("websocket write failed")
		}
		return false
	}
	return true
}

func errorPayload(message string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"message": message})
	return b
}
