package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ittaigolde/spkkn-words/internal/domain"
	"github.com/ittaigolde/spkkn-words/internal/present/rest/middleware"
	"github.com/ittaigolde/spkkn-words/internal/usecase"
)

// --- mocks ---

type mockWordRepo struct {
	state   domain.WordState
	record  domain.TransactionRecord
	err     error
	history []domain.TransactionRecord
	recent  []domain.TransactionRecord
	stats   domain.IncomeStats
}

func (m *mockWordRepo) Get(ctx context.Context, text string) (domain.WordState, error) {
	if m.err != nil {
		return domain.WordState{}, m.err
	}
	return m.state, nil
}

func (m *mockWordRepo) History(ctx context.Context, text string) ([]domain.TransactionRecord, error) {
	return m.history, nil
}

func (m *mockWordRepo) Recent(ctx context.Context, limit int) ([]domain.TransactionRecord, error) {
	return m.recent, nil
}

func (m *mockWordRepo) ApplyClaim(ctx context.Context, text, buyerName, buyerMessage string, paid decimal.Decimal, now time.Time) (domain.WordState, domain.TransactionRecord, error) {
	if m.err != nil {
		return domain.WordState{}, domain.TransactionRecord{}, m.err
	}
	return m.state, m.record, nil
}

func (m *mockWordRepo) CreateWord(ctx context.Context, text, buyerName, buyerMessage string, paid decimal.Decimal, now time.Time) (domain.WordState, domain.TransactionRecord, error) {
	if m.err != nil {
		return domain.WordState{}, domain.TransactionRecord{}, m.err
	}
	return m.state, m.record, nil
}

func (m *mockWordRepo) AdminReset(ctx context.Context, text string, newPrice decimal.Decimal, ownerName, ownerMessage *string, now time.Time) (domain.WordState, domain.TransactionRecord, error) {
	if m.err != nil {
		return domain.WordState{}, domain.TransactionRecord{}, m.err
	}
	return m.state, m.record, nil
}

func (m *mockWordRepo) SetModerationStatus(ctx context.Context, text string, status domain.ModerationStatus, now time.Time) (domain.WordState, error) {
	return m.state, nil
}

func (m *mockWordRepo) Stats(ctx context.Context, now time.Time) (domain.IncomeStats, error) {
	return m.stats, nil
}

func (m *mockWordRepo) LogView(ctx context.Context, text, viewerHash string, now time.Time) error {
	return nil
}

type mockGate struct {
	conf usecase.PaymentConfirmation
	err  error
}

func (m *mockGate) Confirm(ctx context.Context, reference string) (usecase.PaymentConfirmation, error) {
	if m.err != nil {
		return usecase.PaymentConfirmation{}, m.err
	}
	return m.conf, nil
}

type passPolicy struct{}

func (passPolicy) Check(text string) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Publish(ctx context.Context, event domain.ClaimEvent) error { return nil }

// --- helpers ---

func ownedState(word string) domain.WordState {
	owner := "alice"
	message := "hello"
	lockout := time.Now().Add(time.Hour)
	return domain.WordState{
		Text:          word,
		Price:         decimal.NewFromInt(2),
		OwnerName:     &owner,
		OwnerMessage:  &message,
		LockoutEndsAt: &lockout,
	}
}

func newTestServer(t *testing.T, repo *mockWordRepo, gate usecase.PaymentGate, adminHash string) *echo.Echo {
	t.Helper()

	claimUC := usecase.NewClaimUsecase(repo, gate, passPolicy{}, nopNotifier{}, nil, nil)
	wordUC := usecase.NewWordUsecase(repo, nil)
	adminUC := usecase.NewAdminUsecase(repo, nil)

	h := NewHandler(
		claimUC,
		wordUC,
		adminUC,
		nil,
		middleware.NewAdminAuth(adminHash),
		middleware.RateLimiter(0),
		middleware.RateLimiter(0),
	)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func doJSON(e *echo.Echo, method, path string, payload any, header map[string]string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	return res
}

// --- tests ---

func TestHandleGetWord(t *testing.T) {
	repo := &mockWordRepo{
		state: ownedState("ocean"),
		history: []domain.TransactionRecord{
			{Word: "ocean", BuyerName: "alice", AmountPaid: decimal.NewFromInt(1)},
		},
	}
	e := newTestServer(t, repo, &mockGate{}, "")

	res := doJSON(e, http.MethodGet, "/api/v1/words/ocean", nil, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}

	var detail usecase.WordDetail
	if err := json.Unmarshal(res.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if detail.Text != "ocean" {
		t.Fatalf("expected ocean got %q", detail.Text)
	}
	if detail.TransactionCount != 1 {
		t.Fatalf("expected 1 transaction got %d", detail.TransactionCount)
	}
}

func TestHandleGetWordNotFound(t *testing.T) {
	repo := &mockWordRepo{err: domain.NotFoundError{Word: "ghost"}}
	e := newTestServer(t, repo, &mockGate{}, "")

	res := doJSON(e, http.MethodGet, "/api/v1/words/ghost", nil, nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}

	var body map[string]string
	_ = json.Unmarshal(res.Body.Bytes(), &body)
	if body["code"] != "word_not_found" {
		t.Fatalf("expected word_not_found code got %q", body["code"])
	}
}

func TestHandleAvailability(t *testing.T) {
	repo := &mockWordRepo{state: domain.WordState{
		Text:  "ocean",
		Price: decimal.NewFromInt(1),
	}}
	e := newTestServer(t, repo, &mockGate{}, "")

	res := doJSON(e, http.MethodGet, "/api/v1/words/ocean/availability", nil, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	var body struct {
		Text      string `json:"text"`
		Available bool   `json:"available"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Available {
		t.Fatal("expected word to be available")
	}
}

func TestHandlePurchase(t *testing.T) {
	repo := &mockWordRepo{
		state: ownedState("ocean"),
		record: domain.TransactionRecord{
			Word:       "ocean",
			BuyerName:  "alice",
			AmountPaid: decimal.NewFromInt(1),
			Timestamp:  time.Now(),
		},
	}
	gate := &mockGate{conf: usecase.PaymentConfirmation{
		Reference: "pay_123",
		Word:      "ocean",
		Amount:    decimal.NewFromInt(1),
	}}
	e := newTestServer(t, repo, gate, "")

	res := doJSON(e, http.MethodPost, "/api/v1/purchase/ocean", map[string]any{
		"buyerName":        "alice",
		"buyerMessage":     "hello",
		"expectedPrice":    "1",
		"paymentReference": "pay_123",
	}, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}

	var resp purchaseResponse
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Word.Text != "ocean" {
		t.Fatalf("expected ocean got %q", resp.Word.Text)
	}
	if !resp.Transaction.AmountPaid.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected amount 1 got %s", resp.Transaction.AmountPaid)
	}
}

func TestHandlePurchaseMissingReference(t *testing.T) {
	e := newTestServer(t, &mockWordRepo{}, &mockGate{}, "")

	res := doJSON(e, http.MethodPost, "/api/v1/purchase/ocean", map[string]any{
		"buyerName":     "alice",
		"buyerMessage":  "hello",
		"expectedPrice": "1",
	}, nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
}

func TestHandlePurchaseLocked(t *testing.T) {
	repo := &mockWordRepo{err: domain.LockedError{
		Word:  "ocean",
		Until: time.Now().Add(2 * time.Hour),
	}}
	gate := &mockGate{conf: usecase.PaymentConfirmation{
		Reference: "pay_123",
		Word:      "ocean",
		Amount:    decimal.NewFromInt(1),
	}}
	e := newTestServer(t, repo, gate, "")

	res := doJSON(e, http.MethodPost, "/api/v1/purchase/ocean", map[string]any{
		"buyerName":        "bob",
		"buyerMessage":     "mine",
		"expectedPrice":    "1",
		"paymentReference": "pay_123",
	}, nil)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", res.Code, res.Body.String())
	}

	var body map[string]string
	_ = json.Unmarshal(res.Body.Bytes(), &body)
	if body["code"] != "word_locked" {
		t.Fatalf("expected word_locked code got %q", body["code"])
	}
}

func TestHandleCreateWord(t *testing.T) {
	repo := &mockWordRepo{
		state: ownedState("nebula"),
		record: domain.TransactionRecord{
			Word:       "nebula",
			BuyerName:  "alice",
			AmountPaid: domain.CreationPrice,
			Timestamp:  time.Now(),
		},
	}
	gate := &mockGate{conf: usecase.PaymentConfirmation{
		Reference: "pay_456",
		Word:      "nebula",
		Amount:    domain.CreationPrice,
	}}
	e := newTestServer(t, repo, gate, "")

	res := doJSON(e, http.MethodPost, "/api/v1/words/nebula", map[string]any{
		"buyerName":        "alice",
		"buyerMessage":     "first",
		"expectedPrice":    "50",
		"paymentReference": "pay_456",
	}, nil)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", res.Code, res.Body.String())
	}
}

func TestHandleRecent(t *testing.T) {
	repo := &mockWordRepo{recent: []domain.TransactionRecord{
		{Word: "ocean", BuyerName: "alice", AmountPaid: decimal.NewFromInt(1)},
		{Word: "river", BuyerName: "bob", AmountPaid: decimal.NewFromInt(2)},
	}}
	e := newTestServer(t, repo, &mockGate{}, "")

	res := doJSON(e, http.MethodGet, "/api/v1/transactions/recent?limit=2", nil, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	var records []domain.TransactionRecord
	if err := json.Unmarshal(res.Body.Bytes(), &records); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records got %d", len(records))
	}
}

func TestHandleRecentInvalidLimit(t *testing.T) {
	e := newTestServer(t, &mockWordRepo{}, &mockGate{}, "")

	res := doJSON(e, http.MethodGet, "/api/v1/transactions/recent?limit=banana", nil, nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
}

func TestAdminRoutesRequireKey(t *testing.T) {
	e := newTestServer(t, &mockWordRepo{}, &mockGate{}, "")

	res := doJSON(e, http.MethodGet, "/api/v1/admin/stats", nil, nil)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when admin access is unconfigured, got %d", res.Code)
	}
}

func TestAdminStatsWithKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash key: %v", err)
	}

	repo := &mockWordRepo{stats: domain.IncomeStats{
		TotalIncome:       decimal.NewFromInt(7),
		TotalTransactions: 3,
	}}
	e := newTestServer(t, repo, &mockGate{}, string(hash))

	res := doJSON(e, http.MethodGet, "/api/v1/admin/stats", nil, map[string]string{
		"Authorization": "Bearer wrong",
	})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong key, got %d", res.Code)
	}

	res = doJSON(e, http.MethodGet, "/api/v1/admin/stats", nil, map[string]string{
		"Authorization": "Bearer sesame",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}

	var stats domain.IncomeStats
	if err := json.Unmarshal(res.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.TotalTransactions != 3 {
		t.Fatalf("expected 3 transactions got %d", stats.TotalTransactions)
	}
}

func TestAdminReset(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)

	repo := &mockWordRepo{
		state:  ownedState("ocean"),
		record: domain.TransactionRecord{Word: "ocean", IsAdminAction: true},
	}
	e := newTestServer(t, repo, &mockGate{}, string(hash))

	res := doJSON(e, http.MethodPost, "/api/v1/admin/words/ocean/reset", map[string]any{
		"price": "1",
	}, map[string]string{
		"Authorization": "Bearer sesame",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}
}

func TestAdminModeration(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)

	repo := &mockWordRepo{state: ownedState("ocean")}
	e := newTestServer(t, repo, &mockGate{}, string(hash))

	res := doJSON(e, http.MethodPost, "/api/v1/admin/words/ocean/moderation", map[string]any{
		"status": "approved",
	}, map[string]string{
		"Authorization": "Bearer sesame",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}
}

type fakeStreamer struct {
	events chan domain.ClaimEvent
}

func (f *fakeStreamer) Realtime(ctx context.Context, input <-chan []string, output chan<- domain.ClaimEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-input:
		case event := <-f.events:
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

func TestRealtimeDeliversClaims(t *testing.T) {
	repo := &mockWordRepo{}
	claimUC := usecase.NewClaimUsecase(repo, &mockGate{}, passPolicy{}, nopNotifier{}, nil, nil)
	wordUC := usecase.NewWordUsecase(repo, nil)
	adminUC := usecase.NewAdminUsecase(repo, nil)

	streamer := &fakeStreamer{events: make(chan domain.ClaimEvent, 1)}
	h := NewHandler(
		claimUC,
		wordUC,
		adminUC,
		streamer,
		middleware.NewAdminAuth(""),
		middleware.RateLimiter(0),
		middleware.RateLimiter(0),
	)
	e := echo.New()
	h.RegisterRoutes(e)

	server := httptest.NewServer(e)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/realtime", nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"type": "listen", "prefixes": []string{"oc"}}); err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	streamer.events <- domain.ClaimEvent{ID: "1", Word: "ocean", BuyerName: "alice"}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event domain.ClaimEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if event.Word != "ocean" {
		t.Fatalf("expected ocean got %s", event.Word)
	}

	if err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
}
