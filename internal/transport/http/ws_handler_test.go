package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"lesson-progress-engine/internal/app"
	"lesson-progress-engine/internal/domain"
	"lesson-progress-engine/internal/infra/memory"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	service := newTestService()
	wsHandler := NewWSHandler(service, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?lessonId=lesson-1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect initial state first.
	_, payload := readNext(conn, t, "state")
	if payload["total"] != float64(2) {
		t.Fatalf("expected 2 questions, got %v", payload["total"])
	}

	send(t, conn, map[string]any{"type": "choice", "payload": map[string]any{"optionId": "o2"}})

	_, outcome := readNext(conn, t, "outcome")
	if outcome["correct"] != true || outcome["awarded"] != float64(10) {
		t.Fatalf("expected correct outcome worth 10, got %v", outcome)
	}
	_, state := readNext(conn, t, "state")
	if state["currentIndex"] != float64(1) || state["score"] != float64(1) {
		t.Fatalf("expected to be on question 2 with score 1, got %v", state)
	}
	_, profile := readNext(conn, t, "profile")
	if profile["xp"] != float64(10) {
		t.Fatalf("expected profile xp 10, got %v", profile)
	}

	send(t, conn, map[string]any{"type": "reorder", "payload": map[string]any{"order": []string{"b", "a"}}})
	readNext(conn, t, "state")

	send(t, conn, map[string]any{"type": "commit"})
	_, outcome = readNext(conn, t, "outcome")
	if outcome["correct"] != true || outcome["completed"] != true || outcome["awarded"] != float64(12) {
		t.Fatalf("expected correct completing ordering outcome, got %v", outcome)
	}
	_, state = readNext(conn, t, "state")
	if state["complete"] != true {
		t.Fatalf("expected complete state, got %v", state)
	}
	_, profile = readNext(conn, t, "profile")
	if profile["xp"] != float64(22) || len(profile["completedLessons"].([]any)) != 1 {
		t.Fatalf("expected xp 22 and one completed lesson, got %v", profile)
	}
}

func TestWebSocketReloadGetsOwnSession(t *testing.T) {
	sessions := memory.NewSessionStore()
	repo := memory.NewLessonRepository(memory.NewStaticLessonLoader(sampleLessons()), time.Minute)
	service := app.NewLearningService(repo, sessions, app.NewGamificationStore(memory.NewKVStore()), nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service, nil).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()
	u := "ws" + server.URL[len("http"):] + "/ws?lessonId=lesson-1"

	older, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial older: %v", err)
	}
	_, olderState := readNext(older, t, "state")
	olderID, _ := olderState["sessionId"].(string)
	send(t, older, map[string]any{"type": "choice", "payload": map[string]any{"optionId": "o2"}})
	readNext(older, t, "outcome")
	readNext(older, t, "state")
	readNext(older, t, "profile")

	newer, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial newer: %v", err)
	}
	defer newer.Close()
	_, newerState := readNext(newer, t, "state")
	if newerState["currentIndex"] != float64(0) || newerState["answered"] != float64(0) {
		t.Fatalf("expected a fresh quiz on the new socket, got %v", newerState)
	}
	if olderID == "" || newerState["sessionId"] == olderID {
		t.Fatalf("expected distinct session ids, got %q and %v", olderID, newerState["sessionId"])
	}

	older.Close()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := sessions.Get(olderID); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("older session was never closed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	send(t, newer, map[string]any{"type": "restart"})
	_, state := readNext(newer, t, "state")
	if state["lessonId"] != "lesson-1" || state["currentIndex"] != float64(0) {
		t.Fatalf("expected new socket to keep working, got %v", state)
	}
}

func TestWebSocketRejectsBadMessages(t *testing.T) {
	service := newTestService()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service, nil).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/ws?lessonId=lesson-1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readNext(conn, t, "state")

	send(t, conn, map[string]any{"type": "dance"})
	readNext(conn, t, "error")

	send(t, conn, map[string]any{"type": "blank"})
	readNext(conn, t, "error")
}

func TestWebSocketUnknownLesson(t *testing.T) {
	service := newTestService()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service, nil).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/ws?lessonId=nope", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_, payload := readNext(conn, t, "error")
	if payload["message"] != domain.ErrLessonNotFound.Error() {
		t.Fatalf("expected lesson not found, got %v", payload)
	}
}

func TestAPIListsLessonsAndProfile(t *testing.T) {
	service := newTestService()
	mux := http.NewServeMux()
	NewAPIHandler(service, nil).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lessons", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summaries []domain.LessonSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode lessons: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Questions != 2 {
		t.Fatalf("unexpected summaries %+v", summaries)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
	var profile map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile["streakStatus"] != string(app.StreakNoHistory) || profile["lastActiveDate"] != nil {
		t.Fatalf("expected fresh profile, got %v", profile)
	}
}

func TestAPIReportsMissingContent(t *testing.T) {
	store := app.NewGamificationStore(memory.NewKVStore())
	repo := memory.NewLessonRepository(memory.NewStaticLessonLoader(nil), time.Minute)
	service := app.NewLearningService(repo, memory.NewSessionStore(), store, nil)

	mux := http.NewServeMux()
	NewAPIHandler(service, nil).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lessons", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for missing content, got %d", rec.Code)
	}
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func newTestService() *app.LearningService {
	store := app.NewGamificationStore(memory.NewKVStore())
	repo := memory.NewLessonRepository(memory.NewStaticLessonLoader(sampleLessons()), time.Minute)
	return app.NewLearningService(repo, memory.NewSessionStore(), store, nil)
}

func sampleLessons() []domain.Lesson {
	return []domain.Lesson{
		{
			ID:    "lesson-1",
			Title: "Neural Networks",
			Quiz: []domain.Question{
				{
					ID:     "q1",
					Kind:   domain.MultipleChoice,
					Prompt: "Which function introduces non-linearity?",
					Options: []domain.Option{
						{ID: "o1", Text: "Identity"},
						{ID: "o2", Text: "ReLU", IsCorrect: true},
					},
				},
				{
					ID:     "q2",
					Kind:   domain.Ordering,
					Prompt: "Order a training step",
					Options: []domain.Option{
						{ID: "a", Text: "Backward pass"},
						{ID: "b", Text: "Forward pass"},
					},
					CorrectOrder: []string{"b", "a"},
				},
			},
		},
	}
}
