package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bdobrica/voicedesk/internal/voicedesk/actions"
	"github.com/bdobrica/voicedesk/internal/voicedesk/alexa"
	"github.com/bdobrica/voicedesk/internal/voicedesk/mgmt"
	"github.com/bdobrica/voicedesk/internal/voicedesk/nlu"
)

// scriptedEngine replays canned responses and records every request it sees.
type scriptedEngine struct {
	responses []*nlu.MessageResponse
	err       error
	requests  []nlu.MessageRequest
}

func (e *scriptedEngine) Message(ctx context.Context, req nlu.MessageRequest) (*nlu.MessageResponse, error) {
	e.requests = append(e.requests, req)
	if e.err != nil {
		return nil, e.err
	}
	if len(e.responses) == 0 {
		return &nlu.MessageResponse{Context: nlu.NewDialogContext()}, nil
	}
	resp := e.responses[0]
	e.responses = e.responses[1:]
	return resp, nil
}

// memStore is an in-memory Store for tests.
type memStore struct {
	mu       sync.Mutex
	data     map[string]nlu.DialogContext
	loadErr  error
	saveErr  error
	saveKeys []string
}

func newMemStore() *memStore {
	return &memStore{data: map[string]nlu.DialogContext{}}
}

func (s *memStore) Load(ctx context.Context, key string) (nlu.DialogContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if d, ok := s.data[key]; ok {
		return d.Clone(), nil
	}
	return nlu.NewDialogContext(), nil
}

func (s *memStore) Save(ctx context.Context, key string, d nlu.DialogContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saveKeys = append(s.saveKeys, key)
	s.data[key] = d.Clone()
	return nil
}

func (s *memStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data), nil
}

func (s *memStore) Close() error { return nil }

func intentEnvelope(userID, utterance string) *alexa.RequestEnvelope {
	env := &alexa.RequestEnvelope{}
	env.Version = "1.0"
	env.Session.User = &alexa.User{UserID: userID}
	env.Request.Type = "IntentRequest"
	env.Request.Intent = &alexa.Intent{
		Name:  "EveryThingIntent",
		Slots: map[string]alexa.Slot{alexa.EveryThingSlot: {Name: alexa.EveryThingSlot, Value: utterance}},
	}
	return env
}

func launchEnvelope(userID string) *alexa.RequestEnvelope {
	env := &alexa.RequestEnvelope{}
	env.Version = "1.0"
	env.Session.User = &alexa.User{UserID: userID}
	env.Request.Type = "LaunchRequest"
	return env
}

func TestTurnMetricRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/system/cpu" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"ELAPSED_CPU_USED": 17}`))
	}))
	defer srv.Close()

	engine := &scriptedEngine{responses: []*nlu.MessageResponse{
		{
			Context: nlu.DialogContext{nlu.FieldAction: "CPU"},
			Output:  []string{"Let me check."},
		},
		{
			Context: nlu.DialogContext{},
			Output:  []string{"The CPU usage is", "17 percent."},
		},
	}}
	store := newMemStore()

	o := &Orchestrator{
		Engine:   engine,
		Store:    store,
		Registry: actions.DefaultRegistry(),
		Deps:     actions.Deps{Mgmt: mgmt.NewClient(mgmt.Config{BaseURL: srv.URL})},
	}

	out, err := o.Turn(context.Background(), intentEnvelope("amzn1.ask.account.A1", "what is the cpu usage"))
	if err != nil {
		t.Fatalf("turn: %v", err)
	}

	if len(engine.requests) != 2 {
		t.Fatalf("engine saw %d requests, want 2", len(engine.requests))
	}
	if engine.requests[0].Input != "what is the cpu usage" {
		t.Errorf("first input = %q", engine.requests[0].Input)
	}
	if engine.requests[1].Input != "17" {
		t.Errorf("follow-up input = %q, want the metric value", engine.requests[1].Input)
	}

	if got := out.Reply.Response.OutputSpeech.Text; got != "The CPU usage is 17 percent." {
		t.Errorf("assembled reply = %q", got)
	}
	if out.Reply.Response.ShouldEndSession {
		t.Error("turn must keep the session open")
	}
	if len(out.Reply.Response.Directives) != 0 {
		t.Errorf("cpu turn attached %d directives", len(out.Reply.Response.Directives))
	}

	if err := o.Persist(context.Background(), out); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(store.saveKeys) != 1 || store.saveKeys[0] != "amzn1.ask.account.A1" {
		t.Errorf("saved keys = %v", store.saveKeys)
	}
}

func TestTurnFirstContact(t *testing.T) {
	engine := &scriptedEngine{responses: []*nlu.MessageResponse{
		{Context: nlu.NewDialogContext(), Output: []string{"Welcome to the helpdesk."}},
	}}
	o := &Orchestrator{Engine: engine, Store: newMemStore(), Registry: actions.DefaultRegistry()}

	out, err := o.Turn(context.Background(), launchEnvelope("amzn1.ask.account.A1"))
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if engine.requests[0].Input != "start skill" {
		t.Errorf("first contact input = %q, want start skill", engine.requests[0].Input)
	}
	if out.Reply.Response.OutputSpeech.Text != "Welcome to the helpdesk." {
		t.Errorf("reply = %q", out.Reply.Response.OutputSpeech.Text)
	}
}

func TestTurnCleansSpelledInput(t *testing.T) {
	engine := &scriptedEngine{responses: []*nlu.MessageResponse{
		{Context: nlu.NewDialogContext(), Output: []string{"Noted."}},
	}}
	o := &Orchestrator{
		Engine:     engine,
		Store:      newMemStore(),
		Registry:   actions.DefaultRegistry(),
		WakePhrase: "helpdesk",
	}

	_, err := o.Turn(context.Background(), intentEnvelope("u1", "helpdesk my user is j d o e"))
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if engine.requests[0].Input != "my user is jdoe" {
		t.Errorf("cleaned input = %q, want %q", engine.requests[0].Input, "my user is jdoe")
	}
}

func TestTurnStoreLoadFailureStartsCold(t *testing.T) {
	engine := &scriptedEngine{responses: []*nlu.MessageResponse{
		{Context: nlu.NewDialogContext(), Output: []string{"Hello."}},
	}}
	store := newMemStore()
	store.loadErr = errors.New("disk on fire")

	o := &Orchestrator{Engine: engine, Store: store, Registry: actions.DefaultRegistry()}

	out, err := o.Turn(context.Background(), launchEnvelope("u1"))
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if len(engine.requests[0].Context) != 0 {
		t.Errorf("engine received non-empty context %v after load failure", engine.requests[0].Context)
	}
	if out.Reply.Response.OutputSpeech.Text != "Hello." {
		t.Errorf("reply = %q", out.Reply.Response.OutputSpeech.Text)
	}
}

func TestTurnEngineFailureIsTerminal(t *testing.T) {
	engine := &scriptedEngine{err: nlu.ErrUnavailable}
	o := &Orchestrator{Engine: engine, Store: newMemStore(), Registry: actions.DefaultRegistry()}

	_, err := o.Turn(context.Background(), launchEnvelope("u1"))
	if !errors.Is(err, nlu.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestTurnMissingUserRejected(t *testing.T) {
	env := launchEnvelope("u1")
	env.Session.User = nil

	o := &Orchestrator{Engine: &scriptedEngine{}, Store: newMemStore(), Registry: actions.DefaultRegistry()}
	_, err := o.Turn(context.Background(), env)
	if !errors.Is(err, alexa.ErrNoUser) {
		t.Fatalf("err = %v, want ErrNoUser", err)
	}
}

func TestPersistReportsSaveFailure(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("backend gone")
	o := &Orchestrator{Store: store}

	err := o.Persist(context.Background(), &Outcome{Key: "u1", Dialog: nlu.NewDialogContext()})
	if err == nil {
		t.Fatal("expected save failure to be reported")
	}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"Hello.", "How can I help?"}, "Hello. How can I help?"},
		{[]string{"", "Only one.", " "}, "Only one."},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := assemble(tt.in); got != tt.want {
			t.Errorf("assemble(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
