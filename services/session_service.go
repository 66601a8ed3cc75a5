package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-client/codec"
	"chat-client/models"
	"chat-client/repository"
	"chat-client/ws"
)

// ErrAttachmentRead means a local file could not be read; the draft carrying
// it is discarded, not queued for retry.
var ErrAttachmentRead = errors.New("attachment read failed")

type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateConnecting
	StateActive
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Callbacks are the controller's notifications to the presentation layer.
type Callbacks struct {
	OnMessage     func(msg models.Message)
	OnStateChange func(state SessionState)
	// OnSendError reports an asynchronous send failure for the draft with
	// the given local id.
	OnSendError func(localID string, err error)
}

type draftJob struct {
	ctx      context.Context
	localID  string
	text     string
	filePath string
}

// SessionController drives the messaging core: it owns the transport
// session, feeds decoded frames into the transcript, and serializes outbound
// sends through a single queue so wire order matches call order even when a
// draft needs an attachment read first.
type SessionController struct {
	userID     string
	roomID     string
	transcript repository.TranscriptRepository
	transport  *ws.Session
	callbacks  Callbacks
	log        *zap.Logger

	mu     sync.Mutex
	state  SessionState
	closed bool

	drafts chan draftJob
}

const draftQueueDepth = 64

func NewSessionController(endpoint, userID, roomID string, creds repository.CredentialRepository,
	transcript repository.TranscriptRepository, callbacks Callbacks, log *zap.Logger) *SessionController {

	c := &SessionController{
		userID:     userID,
		roomID:     roomID,
		transcript: transcript,
		callbacks:  callbacks,
		log:        log,
		state:      StateUnauthenticated,
		drafts:     make(chan draftJob, draftQueueDepth),
	}
	c.transport = ws.NewSession(endpoint, creds, ws.Handlers{
		OnOpen:  c.handleOpen,
		OnClose: c.handleClose,
		OnError: c.handleError,
		OnFrame: c.handleFrame,
	}, log.Named("ws"))

	go c.sendLoop()
	return c
}

func (c *SessionController) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the transport session. Without a stored credential it fails
// fast and the controller stays Unauthenticated.
func (c *SessionController) Connect(ctx context.Context) error {
	c.setState(StateConnecting)
	if err := c.transport.Open(ctx); err != nil {
		if errors.Is(err, ws.ErrMissingCredential) {
			c.setState(StateUnauthenticated)
		} else {
			c.setState(StateDisconnected)
		}
		return err
	}
	// Open is a no-op on an already-open transport; make sure the overlay
	// state agrees either way.
	if c.transport.State() == ws.StateOpen {
		c.setState(StateActive)
	}
	return nil
}

// Send queues one outbound draft. Empty text with no attachment is a no-op.
// Returns the draft's local id; asynchronous failures (file read, write)
// come back through OnSendError with that id. The queue admits one in-flight
// draft at a time, so delivery order equals call order.
func (c *SessionController) Send(ctx context.Context, text, filePath string) (string, error) {
	if text == "" && filePath == "" {
		return "", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StateActive {
		return "", ws.ErrNotConnected
	}

	job := draftJob{ctx: ctx, localID: uuid.NewString(), text: text, filePath: filePath}
	select {
	case c.drafts <- job:
		return job.localID, nil
	default:
		return "", fmt.Errorf("outbound queue full: %w", ws.ErrNotConnected)
	}
}

// Close tears the session down. Safe to call in any state and more than once.
func (c *SessionController) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.drafts)
	c.mu.Unlock()

	return c.transport.Close()
}

func (c *SessionController) sendLoop() {
	for job := range c.drafts {
		c.processDraft(job)
	}
}

func (c *SessionController) processDraft(job draftJob) {
	draft := models.OutboundDraft{
		LocalID: job.localID,
		UserID:  c.userID,
		RoomID:  c.roomID,
		Text:    job.text,
	}

	if job.filePath != "" {
		file, err := readAttachment(job.ctx, job.filePath)
		if err != nil {
			c.log.Warn("attachment read failed",
				zap.String("draft", job.localID),
				zap.String("path", job.filePath),
				zap.Error(err))
			c.reportSendError(job.localID, fmt.Errorf("%w: %v", ErrAttachmentRead, err))
			return
		}
		draft.File = file
	}

	frame, err := codec.Encode(draft)
	if err != nil {
		c.reportSendError(job.localID, err)
		return
	}

	if err := c.transport.Send(frame); err != nil {
		c.log.Warn("send failed", zap.String("draft", job.localID), zap.Error(err))
		c.reportSendError(job.localID, err)
	}
}

// readAttachment loads the file bytes, honoring cancellation of the draft's
// context while the read is in flight.
func readAttachment(ctx context.Context, path string) (*models.LocalFile, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(path)
		ch <- result{data, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		fileType := mime.TypeByExtension(filepath.Ext(path))
		if fileType == "" {
			fileType = "application/octet-stream"
		}
		return &models.LocalFile{
			Name: filepath.Base(path),
			Type: fileType,
			Data: res.data,
		}, nil
	}
}

func (c *SessionController) reportSendError(localID string, err error) {
	if c.callbacks.OnSendError != nil {
		c.callbacks.OnSendError(localID, err)
	}
}

func (c *SessionController) handleOpen() {
	c.setState(StateActive)
}

func (c *SessionController) handleClose() {
	c.setState(StateDisconnected)
}

func (c *SessionController) handleError(err error) {
	c.log.Warn("transport error", zap.Error(err))
	c.setState(StateDisconnected)
}

// handleFrame decodes and appends. Malformed frames are logged and dropped;
// they never reach the transcript and never surface as fatal errors.
func (c *SessionController) handleFrame(raw []byte) {
	msg, err := codec.Decode(raw)
	if err != nil {
		c.log.Warn("dropping malformed frame", zap.Error(err))
		return
	}
	c.transcript.Append(msg)
	if c.callbacks.OnMessage != nil {
		c.callbacks.OnMessage(msg)
	}
}

func (c *SessionController) setState(state SessionState) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()

	c.log.Info("session state", zap.String("state", state.String()))
	if c.callbacks.OnStateChange != nil {
		c.callbacks.OnStateChange(state)
	}
}
