// Package stream pushes simulation samples to websocket clients as they are
// produced. Every client connection triggers one run.
package stream

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/experiment"
)

const (
	TypeStart  = "start"
	TypeSample = "sample"
	TypeDone   = "done"
	TypeError  = "error"
)

type Message struct {
	Type    string             `json:"type"`
	Model   string             `json:"model,omitempty"`
	Method  string             `json:"method,omitempty"`
	Labels  []string           `json:"labels,omitempty"`
	T       float64            `json:"t"`
	X       []float64          `json:"x,omitempty"`
	Stats   *dynamo.Stats      `json:"stats,omitempty"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Stream writes samples of one run to one connection. It implements
// dynamo.Observer; the first write error cancels the run.
type Stream struct {
	conn   *websocket.Conn
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

func NewStream(conn *websocket.Conn, cancel context.CancelFunc) *Stream {
	return &Stream{conn: conn, cancel: cancel}
}

func (s *Stream) OnSample(x dynamo.State, t float64) {
	s.Send(Message{Type: TypeSample, T: t, X: x})
}

func (s *Stream) Send(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return
	}
	if err := s.conn.WriteJSON(&msg); err != nil {
		s.err = err
		if s.cancel != nil {
			s.cancel()
		}
	}
}

func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Server runs the base configuration once per connection. Query parameters
// override it: method=<name> picks the integrator and any dotted parameter
// name (reactor.v, controller.kp, ...) sets that value.
type Server struct {
	base     *config.Config
	registry *experiment.Registry
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewServer(base *config.Config) *Server {
	return &Server{
		base:     base,
		registry: experiment.NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logrus.StandardLogger(),
	}
}

func (s *Server) WithLogger(l logrus.FieldLogger) *Server {
	if l != nil {
		s.log = l
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	return mux
}

// ConfigFor applies the query overrides of r to a copy of the base config.
func (s *Server) ConfigFor(r *http.Request) (*config.Config, error) {
	cfg := s.base.Clone()
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		v := values[len(values)-1]
		if strings.EqualFold(key, "method") {
			cfg.Method = v
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a number", dynamo.ErrInvalidParameter, key, v)
		}
		if err := cfg.SetParam(key, f); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	st := NewStream(conn, cancel)
	go drain(conn, cancel)

	cfg, err := s.ConfigFor(r)
	if err != nil {
		st.Send(Message{Type: TypeError, Error: err.Error()})
		return
	}

	log := s.log.WithFields(logrus.Fields{"remote": r.RemoteAddr, "model": cfg.Model, "method": cfg.Method})
	exp := experiment.New(cfg).WithRegistry(s.registry).WithLogger(log)
	if err := exp.Setup(); err != nil {
		st.Send(Message{Type: TypeError, Error: err.Error()})
		return
	}
	exp.GetSimulator().AddObserver(st)

	st.Send(Message{Type: TypeStart, Model: cfg.Model, Method: cfg.Method, Labels: exp.Labels(), T: cfg.TStart})

	res, err := exp.Run(ctx)
	if st.Err() != nil {
		log.WithError(st.Err()).Debug("client went away")
		return
	}

	final := Message{Type: TypeDone, T: cfg.TEnd}
	if res != nil {
		final.Stats = &res.Stats
		final.Metrics = finite(res.Metrics)
		if res.Len() > 0 {
			final.T = res.Times[res.Len()-1]
		}
	}
	if err != nil {
		final.Type = TypeError
		final.Error = err.Error()
	}
	st.Send(final)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// drain consumes client frames so control messages are handled; a closed
// connection cancels the run.
func drain(conn *websocket.Conn, cancel context.CancelFunc) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			return
		}
	}
}

func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}
