package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/windoze95/reme-voice/internal/config"
	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/middleware"
	"github.com/windoze95/reme-voice/internal/service"
	"github.com/windoze95/reme-voice/internal/tools"
	"github.com/windoze95/reme-voice/internal/voice"
	"go.uber.org/zap"
)

var errClientGone = errors.New("client disconnected")

// VoiceHandler manages WebSocket connections for voice sessions.
type VoiceHandler struct {
	Hub          *Hub
	JwtSecret    string
	VoiceService *service.VoiceService
	upgrader     websocket.Upgrader
}

// NewVoiceHandler returns a new VoiceHandler. Origins are checked against
// allowedOrigins; localhost is always allowed for development.
func NewVoiceHandler(hub *Hub, jwtSecret string, voiceService *service.VoiceService, allowedOrigins []string) *VoiceHandler {
	return &VoiceHandler{
		Hub:          hub,
		JwtSecret:    jwtSecret,
		VoiceService: voiceService,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return isLocalOrigin(origin)
	}
}

func isLocalOrigin(origin string) bool {
	for _, prefix := range []string{"http://localhost", "http://127.0.0.1"} {
		if origin == prefix || len(origin) > len(prefix) && origin[:len(prefix)+1] == prefix+":" {
			return true
		}
	}
	return false
}

// HandleVoiceSession upgrades an HTTP request to a WebSocket voice session.
// When a JWT secret is configured, authentication is done via a "token"
// query parameter because WebSocket connections cannot easily use
// Authorization headers.
func (vh *VoiceHandler) HandleVoiceSession(c *gin.Context) {
	log := logger.Get()

	var userID uint
	if vh.JwtSecret != "" {
		id, ok := vh.authenticate(c)
		if !ok {
			return
		}
		userID = id
	}

	conversationID := c.DefaultQuery("conversationId", voice.DefaultConversationID)

	conn, err := vh.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return
	}

	client := &Client{
		Hub:       vh.Hub,
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
		RoomID:    conversationID,
		SessionID: uuid.NewString(),
		UserID:    userID,
	}
	if !vh.Hub.Join(client) {
		conn.Close()
		return
	}

	session := vh.NewSession(client)

	go client.WritePump()
	go func() {
		defer session.Close()
		client.ReadPump(session.HandleMessage)
	}()
}

// authenticate validates the "token" query parameter and writes the error
// response itself when it fails.
func (vh *VoiceHandler) authenticate(c *gin.Context) (uint, bool) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "token query parameter is required"})
		return 0, false
	}

	userID, err := middleware.ParseAccessToken(vh.JwtSecret, tokenString)
	if err != nil {
		c.JSON(middleware.TokenStatus(err), gin.H{"message": err.Error()})
		return 0, false
	}
	return userID, true
}

// Session is one browser's voice pipeline: its router, transcription
// source, context and function executor.
type Session struct {
	ID       string
	Client   *Client
	Contexts *voice.ContextStore
	Router   *voice.Router
	Executor *tools.ClientExecutor

	transport string
	browser   *BrowserSource
	whisper   *WhisperSource

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	log       *zap.Logger
	svc       *service.VoiceService

	attachMu     sync.Mutex
	attachedConv string
	detach       func()
}

// NewSession builds the pipeline of client, starts its router and sends
// the connected message.
func (vh *VoiceHandler) NewSession(client *Client) *Session {
	svc := vh.VoiceService
	env := svc.Cfg.EnvVars

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        client.SessionID,
		Client:    client,
		Contexts:  voice.NewContextStore(),
		transport: env.VoiceTransport,
		ctx:       ctx,
		cancel:    cancel,
		svc:       svc,
		log:       logger.WithSession(client.SessionID, client.RoomID),
	}
	if client.RoomID != "" {
		id := client.RoomID
		s.Contexts.Update(voice.ContextPatch{ConversationID: &id})
	}

	s.Executor = tools.NewClientExecutor(tools.RequesterFunc(func(ctx context.Context, req tools.FunctionRequest) error {
		if !s.send(MsgTypeFunctionRequest, req) {
			return errClientGone
		}
		return nil
	}), env.FunctionTimeout)

	var src voice.TranscriptionSource
	if s.transport == config.TransportWhisper {
		s.whisper = NewWhisperSource(svc.SpeechProvider, s.send)
		src = s.whisper
	} else {
		s.transport = config.TransportBrowser
		s.browser = NewBrowserSource(s.send)
		src = s.browser
	}

	s.Router = svc.NewRouter(src, sessionSink{send: s.send}, s.Contexts, s.Executor, s.log)
	go s.Router.Run(ctx)
	s.attach()
	svc.Metrics.SessionStarted(ctx)

	s.send(MsgTypeConnected, ConnectedPayload{
		SessionID:      s.ID,
		ConversationID: s.Contexts.Current().ConversationKey(),
		Transport:      s.transport,
	})
	s.log.Info("voice session started", zap.String("transport", s.transport))
	return s
}

// Close stops the router and abandons in-flight work.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.attachMu.Lock()
		if s.detach != nil {
			s.detach()
			s.detach = nil
		}
		s.attachMu.Unlock()
		s.svc.Metrics.SessionEnded(context.Background())
		s.log.Info("voice session closed")
	})
}

// attach offers the executor to REST commands of the session's current
// conversation, moving it when the conversation changed.
func (s *Session) attach() {
	conv := s.Contexts.Current().ConversationKey()
	s.attachMu.Lock()
	defer s.attachMu.Unlock()
	if s.detach != nil && s.attachedConv == conv {
		return
	}
	if s.ctx.Err() != nil {
		return
	}
	if s.detach != nil {
		s.detach()
	}
	s.attachedConv = conv
	s.detach = s.svc.AttachClient(conv, s.Executor)
}

func (s *Session) send(msgType string, payload interface{}) bool {
	data, err := encode(msgType, payload)
	if err != nil {
		s.log.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return false
	}
	if !s.Client.Enqueue(data) {
		s.log.Debug("message not delivered", zap.String("type", msgType))
		return false
	}
	return true
}

func (s *Session) sendError(message string) {
	s.send(MsgTypeError, ErrorPayload{Message: message})
}

// HandleMessage parses an incoming WebSocket message and routes it to the
// session.
func (s *Session) HandleMessage(_ *Client, data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError("invalid message format")
		return
	}

	s.log.Debug("received ws message", zap.String("type", msg.Type))

	switch msg.Type {
	case MsgTypeHello:
		var hello HelloPayload
		if err := json.Unmarshal(msg.Payload, &hello); err != nil {
			s.sendError("invalid hello payload")
			return
		}
		if s.browser != nil {
			s.browser.SetSupported(hello.SpeechSupported)
		}
		if hello.ConversationID != "" {
			s.Contexts.Update(voice.ContextPatch{ConversationID: &hello.ConversationID})
			s.attach()
		}

	case MsgTypeStart:
		s.Router.Connect()

	case MsgTypeStop:
		s.Router.Disconnect()

	case MsgTypeDismissError:
		s.Router.DismissError()

	case MsgTypeSpeechStarted, MsgTypeTranscript, MsgTypeSpeechError, MsgTypeSpeechEnded:
		s.handleRecognizer(msg)

	case MsgTypeAudioUtterance:
		if s.whisper == nil {
			s.sendError("audio_utterance requires the whisper transport")
			return
		}
		var utt AudioUtterancePayload
		if err := json.Unmarshal(msg.Payload, &utt); err != nil || len(utt.Audio) == 0 {
			s.sendError("invalid audio_utterance payload")
			return
		}
		go s.whisper.Transcribe(s.ctx, utt.Audio, utt.Format)

	case MsgTypeUpdateContext:
		var update UpdateContextPayload
		if err := json.Unmarshal(msg.Payload, &update); err != nil {
			s.sendError("invalid update_context payload")
			return
		}
		s.Contexts.Update(update.Context)
		if update.Context.ConversationID != nil {
			s.attach()
		}

	case MsgTypeFunctionResponse:
		var resp FunctionResponsePayload
		if err := json.Unmarshal(msg.Payload, &resp); err != nil || resp.RequestID == "" {
			s.sendError("invalid function_response payload")
			return
		}
		if !s.Executor.Resolve(resp.RequestID, resp.Result) {
			s.log.Warn("function response for unknown request", zap.String("request_id", resp.RequestID))
		}

	case MsgTypePing:
		s.send(MsgTypePong, nil)

	default:
		s.sendError("unknown message type: " + msg.Type)
	}
}

func (s *Session) handleRecognizer(msg WSMessage) {
	if s.browser == nil {
		s.sendError(msg.Type + " requires the browser transport")
		return
	}
	switch msg.Type {
	case MsgTypeSpeechStarted:
		s.browser.Ready()
	case MsgTypeSpeechEnded:
		s.browser.End()
	case MsgTypeTranscript:
		var tr TranscriptPayload
		if err := json.Unmarshal(msg.Payload, &tr); err != nil {
			s.sendError("invalid transcript payload")
			return
		}
		s.browser.Transcript(tr.Text, tr.IsFinal)
	case MsgTypeSpeechError:
		var se SpeechErrorPayload
		if err := json.Unmarshal(msg.Payload, &se); err != nil || se.Error == "" {
			s.sendError("invalid speech_error payload")
			return
		}
		s.browser.Fail(se.Error, se.Message)
	}
}
