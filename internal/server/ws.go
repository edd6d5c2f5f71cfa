package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tradepal/assistant/internal/avatar"
	"github.com/tradepal/assistant/internal/bus"
	"github.com/tradepal/assistant/internal/session"
	"github.com/tradepal/assistant/internal/speech"
	"github.com/tradepal/assistant/internal/tts"
)

var upgrader = websocket.Upgrader{
	// Origin policy is enforced by the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inboundMsg is everything the frontend can send over the session socket.
type inboundMsg struct {
	Type            string  `json:"type"`
	Text            string  `json:"text,omitempty"`
	Final           bool    `json:"final,omitempty"`
	Level           float32 `json:"level,omitempty"`
	Active          bool    `json:"active,omitempty"`
	SpeechSupported bool    `json:"speechSupported,omitempty"`
}

type transcriptMsg struct {
	Type    string              `json:"type"`
	Message session.ChatMessage `json:"message"`
}

type noticeMsg struct {
	Type string `json:"type"`
	Key  string `json:"key"`
	Text string `json:"text"`
}

type frameMsg struct {
	Type    string               `json:"type"`
	Status  avatar.Status        `json:"status"`
	Emotion avatar.Emotion       `json:"emotion"`
	Loading bool                 `json:"loading"`
	Weights []avatar.NamedWeight `json:"weights"`
}

type recognizerMsg struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

type audioMsg struct {
	Type   string `json:"type"`
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

// sessionConn serializes writes to one WebSocket connection.
type sessionConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *sessionConn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// wsRecognizer proxies recognizer lifecycle to the browser, which owns the
// actual speech-recognition capability. The watchdog drives Start/Stop; the
// client reports back its real state.
type wsRecognizer struct {
	mu        sync.Mutex
	send      func(v any) error
	supported bool
	active    bool
}

func (r *wsRecognizer) Start() error {
	r.mu.Lock()
	r.active = true
	r.mu.Unlock()
	return r.send(recognizerMsg{Type: "recognizer", Action: "start"})
}

func (r *wsRecognizer) Stop() {
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
	_ = r.send(recognizerMsg{Type: "recognizer", Action: "stop"})
}

func (r *wsRecognizer) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *wsRecognizer) Supported() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.supported
}

func (r *wsRecognizer) setSupported(v bool) {
	r.mu.Lock()
	r.supported = v
	r.mu.Unlock()
}

func (r *wsRecognizer) setActive(v bool) {
	r.mu.Lock()
	r.active = v
	r.mu.Unlock()
}

// wsSink forwards synthesized audio to the client and blocks until the
// client reports playback finished, keeping utterance pending state honest.
type wsSink struct {
	send func(v any) error
	done chan struct{}
}

func newWSSink(send func(v any) error) *wsSink {
	return &wsSink{send: send, done: make(chan struct{}, 1)}
}

func (s *wsSink) Play(ctx context.Context, audio []byte, format string) error {
	if err := s.send(audioMsg{Type: "audio", Format: format, Data: audio}); err != nil {
		return err
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *wsSink) playbackDone() {
	select {
	case s.done <- struct{}{}:
	default:
	}
}

// handleSession runs one chat session over a WebSocket connection. Each
// connection gets its own context, transcript, avatar, and capture state.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn := &sessionConn{conn: ws}
	defer ws.Close()

	log := s.log.With().Str("remote", ws.RemoteAddr().String()).Logger()
	log.Info().Msg("session connected")

	events := bus.NewEventBus()
	face := avatar.NewController(log)
	defer face.Dispose()

	var voice session.Voice
	var sink *wsSink
	if s.cfg.TTSProvider != nil {
		sink = newWSSink(conn.send)
		speaker := tts.NewSpeaker(s.cfg.TTSProvider, sink, log)
		if s.cfg.DefaultVoice != "" {
			speaker.SetDefaultVoice(s.cfg.DefaultVoice)
		}
		defer speaker.Stop()
		voice = speaker
	}

	sess := session.New(session.Options{
		Completer: s.cfg.Completer,
		Voice:     voice,
		Avatar:    face,
		Bus:       events,
		Logger:    log,
	})

	rec := &wsRecognizer{send: conn.send}
	capture := speech.NewCapture(s.cfg.Voice, rec, func() speech.Recognizer { return rec }, log)
	defer capture.Dispose()
	sess.BindCapture(capture)

	events.Subscribe(bus.EventTypeTranscriptEntry, func(e bus.Event) {
		msg, ok := e.Data["message"].(session.ChatMessage)
		if !ok {
			return
		}
		if err := conn.send(transcriptMsg{Type: "transcript", Message: msg}); err != nil {
			log.Debug().Err(err).Msg("transcript push failed")
		}
	})
	events.Subscribe(bus.EventTypeSessionNotice, func(e bus.Event) {
		key, _ := e.Data["key"].(string)
		text, _ := e.Data["text"].(string)
		_ = conn.send(noticeMsg{Type: "notice", Key: key, Text: text})
	})

	// Avatar frames stream at a fixed rate for the whole connection life.
	stopFrames := make(chan struct{})
	defer close(stopFrames)
	go s.streamFrames(conn, face, sess, stopFrames)

	ctx := r.Context()
	for {
		var m inboundMsg
		if err := ws.ReadJSON(&m); err != nil {
			log.Info().Err(err).Msg("session disconnected")
			return
		}

		switch m.Type {
		case "hello":
			rec.setSupported(m.SpeechSupported)
			if m.SpeechSupported {
				if err := capture.Start(); err != nil {
					log.Warn().Err(err).Msg("capture start failed")
				}
			} else {
				sess.NoticeOnce("speech-unsupported",
					"Speech recognition is not available in this browser. Use the text box instead.")
			}
		case "recognition":
			capture.HandleResult(speech.Result{Text: m.Text, IsFinal: m.Final})
		case "recognizer_state":
			rec.setActive(m.Active)
		case "audio_level":
			face.UpdateLipSync(m.Level)
		case "playback_done":
			if sink != nil {
				sink.playbackDone()
			}
		case "mic_denied":
			sess.NoticeOnce("mic-denied",
				"Microphone access was denied. Voice commands are disabled.")
		case "chat":
			sess.Submit(ctx, m.Text)
		default:
			log.Debug().Str("type", m.Type).Msg("unknown message type")
		}
	}
}

// streamFrames publishes avatar frames until stop closes. The controller
// integrates elapsed wall time per tick.
func (s *Server) streamFrames(conn *sessionConn, face *avatar.Controller, sess *session.Session, stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.FrameInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			weights := face.Update(dt)
			frame := frameMsg{
				Type:    "frame",
				Status:  face.Status(),
				Emotion: face.Emotion(),
				Loading: sess.Loading(),
				Weights: weights.Named(),
			}
			if err := conn.send(frame); err != nil {
				return
			}
		}
	}
}
