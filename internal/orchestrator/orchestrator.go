// Package orchestrator drives the complaint-intake conversation. It
// owns all per-session state and coordinates three failure-prone
// collaborators — classification, dialogue model, and the complaint
// service — under a strict per-session single-flight discipline.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/augment"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/classifier"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/dialogue"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/events"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/extractor"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/messagelog"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/registrar"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/session"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/transcript"
)

const thinkingText = "Thinking..."

// pendingComplaint is the transient classification snapshot held
// between "user message classified" and "registration attempted".
// At most one exists per session; each new classification overwrites
// it and any registration attempt clears it.
type pendingComplaint struct {
	complaintText  string
	classification classifier.Result
}

// Session is one ongoing conversation. The mutex serializes submission
// chains: a new user message must not start its chain until the prior
// chain has settled, or two chains would race on pending state and
// interleave transcript appends.
type Session struct {
	session.Session

	mu         sync.Mutex
	transcript *transcript.Store
	pending    *pendingComplaint
}

// Transcript returns the user-visible turns in conversation order.
func (s *Session) Transcript() []transcript.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Visible()
}

type Orchestrator struct {
	classifier *classifier.Classifier
	dialogue   *dialogue.Client
	registrar  *registrar.Registrar
	msglog     *messagelog.Logger
	events     *events.Client
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(cls *classifier.Classifier, dlg *dialogue.Client, reg *registrar.Registrar, ml *messagelog.Logger, ev *events.Client, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		classifier: cls,
		dialogue:   dlg,
		registrar:  reg,
		msglog:     ml,
		events:     ev,
		logger:     logger,
		sessions:   make(map[string]*Session),
	}
}

// StartSession begins a new conversation with a hidden primer turn.
func (o *Orchestrator) StartSession() *Session {
	sess := &Session{
		Session:    session.New(),
		transcript: transcript.NewStore(),
	}
	sess.transcript.Append(transcript.Turn{
		Role:              transcript.RoleModel,
		Text:              companyPrimer,
		HiddenFromDisplay: true,
	})

	o.mu.Lock()
	o.sessions[sess.ID] = sess
	o.mu.Unlock()

	if err := o.events.Publish(events.SubjectSessionStarted, map[string]any{
		"session_id": sess.ID,
		"started_at": sess.StartedAt.Format(time.RFC3339),
	}); err != nil {
		o.logger.Warn("failed to publish session started", "error", err)
	}

	o.logger.Info("session started", "session_id", sess.ID)
	return sess
}

// Session looks up an active conversation by id.
func (o *Orchestrator) Session(id string) (*Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.sessions[id]
	return sess, ok
}

// HandleUserMessage runs the full intake chain for one user
// submission: append and log the user turn, classify, call the
// dialogue model with the augmented transcript, append and log the
// reply, then attempt extraction and registration when an identifier
// is present. The returned turn is what the user sees — the model's
// reply, or an error-flagged turn with remediation text when the
// dialogue call failed.
func (o *Orchestrator) HandleUserMessage(ctx context.Context, sess *Session, text string) transcript.Turn {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.transcript.Append(transcript.Turn{Role: transcript.RoleUser, Text: text})
	o.msglog.Log(ctx, sess.ID, transcript.RoleUser, text, nil)

	cls := o.classifier.MaybeClassify(ctx, sess.ID, text)

	var augmentation string
	if cls != nil {
		sess.pending = &pendingComplaint{
			complaintText:  text,
			classification: *cls,
		}
		augmentation = augment.Build(cls)
	}

	// The dialogue payload is the transcript as of the user turn; the
	// placeholder below exists only for display and is never sent.
	outgoing := sess.transcript.All()
	sess.transcript.Append(transcript.Turn{Role: transcript.RoleModel, Text: thinkingText})

	reply, err := o.dialogue.Respond(ctx, outgoing, augmentation)
	if err != nil {
		errTurn := transcript.Turn{
			Role:    transcript.RoleModel,
			Text:    fmt.Sprintf("Sorry, I encountered an error: %s. Please try again or call 139 for assistance.", err.Error()),
			IsError: true,
		}
		sess.transcript.ReplacePlaceholder(thinkingText, errTurn)
		o.msglog.Log(ctx, sess.ID, transcript.RoleModel, errTurn.Text, cls)
		o.logger.Error("dialogue call failed", "session_id", sess.ID, "error", err)
		return errTurn
	}

	modelTurn := transcript.Turn{Role: transcript.RoleModel, Text: reply}
	sess.transcript.ReplacePlaceholder(thinkingText, modelTurn)
	o.msglog.Log(ctx, sess.ID, transcript.RoleModel, reply, cls)

	o.maybeRegister(ctx, sess)

	return modelTurn
}

// maybeRegister attempts extraction and one-shot registration when a
// classification is pending and the transcript carries a complaint
// identifier. An Incomplete extraction keeps the pending snapshot so a
// later turn that supplies the missing field can still complete the
// record; a registration attempt — success or failure — clears it.
func (o *Orchestrator) maybeRegister(ctx context.Context, sess *Session) {
	if sess.pending == nil {
		return
	}

	conversation := sess.transcript.Text()
	if !extractor.HasComplaintID(conversation) {
		return
	}

	details, outcome := extractor.Extract(conversation)
	switch outcome {
	case extractor.Complete:
		rec := registrar.Merge(details, sess.pending.complaintText, sess.pending.classification, sess.ID)
		if err := o.registrar.Submit(ctx, rec); err != nil {
			o.logger.Error("complaint registration failed",
				"session_id", sess.ID,
				"complaint_id", details.ComplaintID,
				"error", err,
			)
		} else {
			if err := o.events.Publish(events.SubjectComplaintRegistered, map[string]any{
				"complaint_id": rec.ComplaintID,
				"category":     rec.Category,
				"department":   rec.Department,
				"session_id":   rec.SessionID,
			}); err != nil {
				o.logger.Warn("failed to publish complaint registered", "error", err)
			}
		}
		sess.pending = nil
	case extractor.Incomplete:
		o.logger.Warn("complaint fields incomplete, registration deferred", "session_id", sess.ID)
	}
}
