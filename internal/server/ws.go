package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/ajaytemal-source/Resonate/internal/session"
	"github.com/ajaytemal-source/Resonate/internal/window"
)

const (
	// maxFrameBytes bounds a single inbound frame. At 16 kHz mu-law one
	// megabyte is over a minute of audio, far beyond any sane chunk size.
	maxFrameBytes = 1 << 20

	// writeTimeout bounds a single outbound event write.
	writeTimeout = 5 * time.Second
)

// Compile-time assertion that wsSink implements session.Sink.
var _ session.Sink = (*wsSink)(nil)

// wsSink marshals session events to JSON text frames. The mutex serializes
// writers: the reader loop and the background pipelines all emit through it.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Send(ctx context.Context, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("server: marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("server: write event: %w", err)
	}
	return nil
}

// handleWS upgrades the request and drives one session until the client
// disconnects or the server shuts down.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "err", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	ctx := r.Context()
	connID := uuid.NewString()
	log := s.log.With("connection_id", connID)
	log.Info("session connected", "remote", r.RemoteAddr)

	s.metrics.ActiveSessions.Add(ctx, 1)
	defer s.metrics.ActiveSessions.Add(context.Background(), -1)

	proc := session.New(session.ProcessorConfig{
		ConnectionID:      connID,
		DefaultSampleRate: s.cfg.Audio.SampleRate,
		Windows: window.Config{
			PrimaryDuration:   s.cfg.Audio.PrimaryWindow(),
			SecondaryDuration: s.cfg.Audio.SecondaryWindow(),
			OverlapDuration:   s.cfg.Audio.Overlap(),
		},
		Transcriber: s.providers.Transcribe,
		Orchestrator: session.OrchestratorConfig{
			RequestTimeout: s.cfg.Pipelines.RequestTimeout(),
			PollInterval:   s.cfg.Pipelines.TonePollInterval(),
			PollAttempts:   s.cfg.Pipelines.TonePollAttempts,
		},
		Archive: s.store,
		Metrics: s.metrics,
		Logger:  s.log,
	}, &wsSink{conn: conn}, s.providers.Tone, s.providers.Feedback)
	defer proc.Close()

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure, status == websocket.StatusGoingAway:
				log.Info("session closed", "status", status)
			case ctx.Err() != nil:
				log.Info("session cancelled")
			default:
				log.Warn("session read error", "err", err)
			}
			conn.Close(websocket.StatusNormalClosure, "session complete")
			return
		}

		switch typ {
		case websocket.MessageText:
			proc.HandleText(ctx, data)
		case websocket.MessageBinary:
			proc.HandleBinary(ctx, data)
		}
	}
}
