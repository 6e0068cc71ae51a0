package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/classifier"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/dialogue"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/extractor"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/messagelog"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/registrar"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/transcript"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// geminiRequest mirrors the dialogue model's wire request for
// inspection in tests.
type geminiRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

// fixture wires an Orchestrator to fake collaborator servers and
// records every call they receive.
type fixture struct {
	t    *testing.T
	orch *Orchestrator

	mu               sync.Mutex
	classifyCalls    int
	registerStatus   int
	registerPayloads []map[string]any
	logPayloads      []map[string]any
	dialogueRequests []geminiRequest
	replies          []string
	dialogueDelay    time.Duration
}

func newFixture(t *testing.T, replies ...string) *fixture {
	f := &fixture{t: t, registerStatus: http.StatusOK, replies: replies}

	classifySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.classifyCalls++
		f.mu.Unlock()
		// category_id is a bare number on the wire, the model's class index.
		json.NewEncoder(w).Encode(map[string]any{
			"category":    "Stale food",
			"category_id": 24,
			"confidence":  0.91,
			"department":  "Food Quality Control",
		})
	}))
	t.Cleanup(classifySrv.Close)

	registerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		f.mu.Lock()
		f.registerPayloads = append(f.registerPayloads, payload)
		status := f.registerStatus
		f.mu.Unlock()
		if status != http.StatusOK {
			http.Error(w, `{"error":"db down"}`, status)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	t.Cleanup(registerSrv.Close)

	logSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		f.mu.Lock()
		f.logPayloads = append(f.logPayloads, payload)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	t.Cleanup(logSrv.Close)

	dialogueSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.dialogueRequests = append(f.dialogueRequests, req)
		reply := "ok"
		if len(f.replies) > 0 {
			reply = f.replies[0]
			f.replies = f.replies[1:]
		}
		delay := f.dialogueDelay
		f.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		if strings.HasPrefix(reply, "FAIL:") {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": strings.TrimPrefix(reply, "FAIL:")},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": reply}}}},
			},
		})
	}))
	t.Cleanup(dialogueSrv.Close)

	f.orch = New(
		classifier.New(classifySrv.URL, discardLogger()),
		dialogue.NewClient(dialogueSrv.URL),
		registrar.New(registerSrv.URL, discardLogger()),
		messagelog.New(logSrv.URL, discardLogger()),
		nil, // events bus disabled
		discardLogger(),
	)
	return f
}

const detailsReply = `Thank you! I have registered your complaint with the following details:
Name: Asha Rao
Email: asha@example.com
Contact: 9876543210
PNR: 1234567890
Train Number: 12345
Train Name: Rajdhani Express
Your complaint ID is #IRC202501101430521234. Your Stale food complaint has been routed to Food Quality Control.`

func TestHandleUserMessage_ComplaintIsClassifiedAndAugmented(t *testing.T) {
	f := newFixture(t, "I'm so sorry about the stale food. Could you share your Name first?")
	sess := f.orch.StartSession()

	reply := f.orch.HandleUserMessage(context.Background(), sess, "The dal was stale and cold")

	if reply.IsError {
		t.Fatalf("unexpected error turn: %+v", reply)
	}
	if !strings.Contains(reply.Text, "Name") {
		t.Errorf("expected reply asking for Name, got %q", reply.Text)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.classifyCalls != 1 {
		t.Errorf("expected 1 classify call, got %d", f.classifyCalls)
	}
	if len(f.dialogueRequests) != 1 {
		t.Fatalf("expected 1 dialogue call, got %d", len(f.dialogueRequests))
	}

	req := f.dialogueRequests[0]
	// Primer + user turn; the Thinking placeholder must never be sent.
	if len(req.Contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(req.Contents))
	}
	for _, c := range req.Contents {
		if c.Parts[0].Text == thinkingText {
			t.Error("placeholder turn leaked into dialogue payload")
		}
	}
	last := req.Contents[1].Parts[0].Text
	if !strings.Contains(last, "The dal was stale and cold") {
		t.Errorf("expected user text in last content, got %q", last)
	}
	if !strings.Contains(last, `classified as "Stale food" with 91.0% confidence`) {
		t.Errorf("expected classification context on last user turn, got %q", last)
	}

	if sess.pending == nil {
		t.Fatal("expected pending complaint after classification")
	}
	if sess.pending.complaintText != "The dal was stale and cold" {
		t.Errorf("pending complaint text = %q", sess.pending.complaintText)
	}
}

func TestHandleUserMessage_NonComplaintSkipsClassification(t *testing.T) {
	f := newFixture(t, "Trains to Mumbai run daily.")
	sess := f.orch.StartSession()

	f.orch.HandleUserMessage(context.Background(), sess, "which trains go to mumbai")

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.classifyCalls != 0 {
		t.Errorf("expected no classify calls, got %d", f.classifyCalls)
	}
	if sess.pending != nil {
		t.Error("expected no pending complaint")
	}
	// Augmentation must not appear on an unclassified turn.
	last := f.dialogueRequests[0].Contents[1].Parts[0].Text
	if strings.Contains(last, "SYSTEM CONTEXT") {
		t.Errorf("unexpected augmentation: %q", last)
	}

	// Both turns were still logged.
	if len(f.logPayloads) != 2 {
		t.Fatalf("expected 2 log calls, got %d", len(f.logPayloads))
	}
	if f.logPayloads[0]["role"] != "user" || f.logPayloads[1]["role"] != "model" {
		t.Errorf("unexpected log order: %+v", f.logPayloads)
	}
}

func TestHandleUserMessage_RegistersWhenComplete(t *testing.T) {
	f := newFixture(t,
		"So sorry about the stale food! Please share your Name, Email, Contact, PNR, Train Number and Train Name.",
		detailsReply,
	)
	sess := f.orch.StartSession()
	ctx := context.Background()

	f.orch.HandleUserMessage(ctx, sess, "The dal was stale and cold")
	f.orch.HandleUserMessage(ctx, sess,
		"Name: Asha Rao, Email: asha@example.com, Contact: 9876543210, PNR: 1234567890, Train Number: 12345, Train Name: Rajdhani Express")

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.registerPayloads) != 1 {
		t.Fatalf("expected 1 registration, got %d", len(f.registerPayloads))
	}

	rec := f.registerPayloads[0]
	if rec["complaint_id"] != "IRC202501101430521234" {
		t.Errorf("complaint_id = %v", rec["complaint_id"])
	}
	if rec["user_name"] != "Asha Rao" {
		t.Errorf("user_name = %v", rec["user_name"])
	}
	if rec["complaint_text"] != "The dal was stale and cold" {
		t.Errorf("complaint_text = %v", rec["complaint_text"])
	}
	if rec["category"] != "Stale food" || rec["department"] != "Food Quality Control" {
		t.Errorf("classification snapshot missing: %+v", rec)
	}
	if rec["category_id"] != "24" {
		t.Errorf("expected numeric wire category_id carried through as %q, got %v", "24", rec["category_id"])
	}
	if rec["session_id"] != sess.ID {
		t.Errorf("session_id = %v", rec["session_id"])
	}

	if sess.pending != nil {
		t.Error("expected pending cleared after registration")
	}
}

func TestHandleUserMessage_DialogueFailureSurfacesErrorTurn(t *testing.T) {
	f := newFixture(t, "FAIL:quota exceeded")
	sess := f.orch.StartSession()

	reply := f.orch.HandleUserMessage(context.Background(), sess, "The dal was stale and cold")

	if !reply.IsError {
		t.Fatal("expected error-flagged turn")
	}
	if !strings.Contains(reply.Text, "quota exceeded") {
		t.Errorf("expected upstream reason in error turn, got %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "call 139") {
		t.Errorf("expected helpline remediation in error turn, got %q", reply.Text)
	}

	// The placeholder is swapped for the error turn, which stays visible.
	visible := sess.Transcript()
	lastVisible := visible[len(visible)-1]
	if !lastVisible.IsError || lastVisible.Text != reply.Text {
		t.Errorf("expected error turn in transcript, got %+v", lastVisible)
	}
	for _, turn := range visible {
		if turn.Text == thinkingText {
			t.Error("placeholder survived dialogue failure")
		}
	}

	// The error turn is still logged.
	f.mu.Lock()
	defer f.mu.Unlock()
	lastLog := f.logPayloads[len(f.logPayloads)-1]
	if lastLog["role"] != "model" {
		t.Errorf("expected model log entry, got %+v", lastLog)
	}
	if !strings.Contains(lastLog["message"].(string), "139") {
		t.Errorf("expected remediation text logged, got %v", lastLog["message"])
	}
}

func TestHandleUserMessage_RegistrationFailureIsSilentAndClearsPending(t *testing.T) {
	f := newFixture(t, "Please share your details.", detailsReply)
	f.registerStatus = http.StatusInternalServerError
	sess := f.orch.StartSession()
	ctx := context.Background()

	f.orch.HandleUserMessage(ctx, sess, "The dal was stale and cold")
	reply := f.orch.HandleUserMessage(ctx, sess,
		"Name: Asha Rao, Email: asha@example.com, Contact: 9876543210, PNR: 1234567890, Train Number: 12345, Train Name: Rajdhani Express")

	// The user never learns that persistence failed.
	if reply.IsError {
		t.Errorf("registration failure must not surface to the user: %+v", reply)
	}
	if sess.pending != nil {
		t.Error("expected pending cleared even after failed registration")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.registerPayloads) != 1 {
		t.Errorf("expected exactly 1 registration attempt, got %d", len(f.registerPayloads))
	}
}

func TestHandleUserMessage_IncompleteExtractionDefersRegistration(t *testing.T) {
	// The model emits the identifier one turn before the PNR arrives.
	prematureReply := `Almost done! I have:
Name: Asha Rao
Email: asha@example.com
Contact: 9876543210
Train Number: 12345
Train Name: Rajdhani Express
Your complaint ID will be #IRC202501101430521234 — I just need your PNR.`

	f := newFixture(t, prematureReply, "Thank you, your complaint is fully registered now.")
	sess := f.orch.StartSession()
	ctx := context.Background()

	f.orch.HandleUserMessage(ctx, sess, "The dal was stale and cold. Name: Asha Rao, Email: asha@example.com, Contact: 9876543210, Train Number: 12345, Train Name: Rajdhani Express")

	f.mu.Lock()
	if len(f.registerPayloads) != 0 {
		t.Fatalf("expected no registration while PNR missing, got %d", len(f.registerPayloads))
	}
	f.mu.Unlock()
	if sess.pending == nil {
		t.Fatal("expected pending retained while extraction incomplete")
	}

	// The missing field arrives on the next turn; the identifier is
	// already in the transcript, so extraction is re-attempted.
	f.orch.HandleUserMessage(ctx, sess, "PNR: 1234567890")

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.registerPayloads) != 1 {
		t.Fatalf("expected registration after PNR arrived, got %d", len(f.registerPayloads))
	}
	if f.registerPayloads[0]["user_pnr"] != "1234567890" {
		t.Errorf("user_pnr = %v", f.registerPayloads[0]["user_pnr"])
	}
	if sess.pending != nil {
		t.Error("expected pending cleared after registration")
	}
}

func TestHandleUserMessage_StaleClassificationNeverReused(t *testing.T) {
	// A second identifier appearing after registration, without a fresh
	// classification, must not trigger another registration.
	f := newFixture(t,
		"Please share your details.",
		detailsReply,
		"Here is another reference: #IRC202501111111119999. Anything else?",
	)
	sess := f.orch.StartSession()
	ctx := context.Background()

	f.orch.HandleUserMessage(ctx, sess, "The dal was stale and cold")
	f.orch.HandleUserMessage(ctx, sess,
		"Name: Asha Rao, Email: asha@example.com, Contact: 9876543210, PNR: 1234567890, Train Number: 12345, Train Name: Rajdhani Express")
	f.orch.HandleUserMessage(ctx, sess, "thanks, what was my reference again")

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.registerPayloads) != 1 {
		t.Errorf("expected exactly 1 registration, got %d", len(f.registerPayloads))
	}
}

func TestHandleUserMessage_SerializesPerSession(t *testing.T) {
	f := newFixture(t, "first reply", "second reply")
	f.dialogueDelay = 50 * time.Millisecond
	sess := f.orch.StartSession()

	var wg sync.WaitGroup
	for _, msg := range []string{"first message", "second message"} {
		wg.Add(1)
		go func(m string) {
			defer wg.Done()
			f.orch.HandleUserMessage(context.Background(), sess, m)
		}(msg)
	}
	wg.Wait()

	// Whatever order the goroutines won the lock in, each chain must
	// have completed before the next began: user and model turns
	// strictly alternate and no placeholder remains.
	visible := sess.Transcript()
	if len(visible) != 4 {
		t.Fatalf("expected 4 visible turns, got %d: %+v", len(visible), visible)
	}
	for i, turn := range visible {
		wantRole := transcript.RoleUser
		if i%2 == 1 {
			wantRole = transcript.RoleModel
		}
		if turn.Role != wantRole {
			t.Errorf("turn %d: expected role %s, got %s", i, wantRole, turn.Role)
		}
		if turn.Text == thinkingText {
			t.Errorf("turn %d still holds the placeholder", i)
		}
	}
}

func TestStartSession_SeedsHiddenPrimer(t *testing.T) {
	f := newFixture(t)
	sess := f.orch.StartSession()

	if sess.ID == "" {
		t.Fatal("expected a session id")
	}
	if len(sess.Transcript()) != 0 {
		t.Errorf("expected no visible turns at start, got %+v", sess.Transcript())
	}

	got, ok := f.orch.Session(sess.ID)
	if !ok || got != sess {
		t.Error("expected session lookup by id")
	}

	if _, ok := f.orch.Session("missing"); ok {
		t.Error("expected lookup miss for unknown id")
	}
}

// The primer is part of every extraction scan, so none of its prose
// may accidentally satisfy a field pattern.
func TestPrimerSatisfiesNoFieldPatterns(t *testing.T) {
	if _, outcome := extractor.Extract(companyPrimer + "\n#IRC20250101120000"); outcome != extractor.Incomplete {
		t.Errorf("expected Incomplete from primer-only transcript, got %v", outcome)
	}
}
