package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"promo-console/internal/form"
	"promo-console/internal/middleware"
	"promo-console/internal/model"
	"promo-console/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPromotionClient is a mock implementation of promoapi.Client.
type MockPromotionClient struct {
	mock.Mock
}

func (m *MockPromotionClient) Create(ctx context.Context, input model.PromotionInput) (*model.Promotion, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockPromotionClient) Update(ctx context.Context, id string, input model.PromotionInput) (*model.Promotion, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockPromotionClient) Get(ctx context.Context, id string) (*model.Promotion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockPromotionClient) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPromotionClient) Search(ctx context.Context, code string) ([]model.Promotion, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Promotion), args.Error(1)
}

func (m *MockPromotionClient) Apply(ctx context.Context, id string, req model.ApplyRequest) (*model.ApplyResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApplyResponse), args.Error(1)
}

func newTestHandler(client *MockPromotionClient) (*ConsoleHandler, *session.Store) {
	logger := zerolog.Nop()
	store := session.NewStore(func(id string) *form.Controller {
		return form.NewController(id, client, nil, nil, logger)
	}, time.Hour, logger)
	return NewConsoleHandler(store, logger), store
}

func postForm(path string, values url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	require.FailNow(t, "no session cookie set")
	return nil
}

func TestConsoleHandler_Page(t *testing.T) {
	h, _ := newTestHandler(new(MockPromotionClient))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	h.Page(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Promotion Console")
	assert.Contains(t, w.Body.String(), `formaction="/actions/apply"`)

	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
}

func TestConsoleHandler_SessionCookie(t *testing.T) {
	h, store := newTestHandler(new(MockPromotionClient))

	w := httptest.NewRecorder()
	h.State(w, httptest.NewRequest(http.MethodGet, "/state", nil))
	cookie := sessionCookie(t, w)

	// A known session keeps its cookie.
	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.State(w, req)
	assert.Empty(t, w.Result().Cookies())

	// An unknown session gets a new one.
	req = httptest.NewRequest(http.MethodGet, "/state", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged"})
	w = httptest.NewRecorder()
	h.State(w, req)
	assert.NotEqual(t, "forged", sessionCookie(t, w).Value)

	assert.Equal(t, 2, store.Len())
}

func TestConsoleHandler_Create(t *testing.T) {
	client := new(MockPromotionClient)
	h, store := newTestHandler(client)

	start := int64(1552089600)
	client.On("Create", mock.Anything, model.PromotionInput{
		Code:       "SAVE15",
		Percentage: "15",
		Products:   []string{"A", "B"},
		StartDate:  &start,
	}).Return(&model.Promotion{
		ID:         "p1",
		Code:       "SAVE15",
		Percentage: 15,
		Products:   []string{"A", "B"},
		StartDate:  start,
		ExpiryDate: start,
	}, nil)

	values := url.Values{
		"code":       {"SAVE15"},
		"percentage": {"15"},
		"products":   {"A, B"},
		"start_date": {"03/09/2019"},
	}
	w := httptest.NewRecorder()

	h.Create(w, postForm("/actions/create", values, nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	_, c := store.Get(sessionCookie(t, w).Value)
	state := c.State()
	assert.Equal(t, "p1", state.Fields.ID)
	assert.Equal(t, "03/09/2019", state.Fields.ExpiryDate)
	assert.Equal(t, form.FlashSuccess, state.Flash)
	client.AssertExpectations(t)
}

func TestConsoleHandler_ActionErrorsRedirect(t *testing.T) {
	tests := []struct {
		name          string
		call          func(h *ConsoleHandler) http.HandlerFunc
		values        url.Values
		expectedFlash string
	}{
		{
			name:          "Retrieve without id",
			call:          func(h *ConsoleHandler) http.HandlerFunc { return h.Retrieve },
			values:        url.Values{"code": {"SAVE15"}},
			expectedFlash: "Please input a valid Promotion ID",
		},
		{
			name:          "Delete without id",
			call:          func(h *ConsoleHandler) http.HandlerFunc { return h.Delete },
			values:        url.Values{},
			expectedFlash: "Please input a valid Promotion ID",
		},
		{
			name:          "Apply without id",
			call:          func(h *ConsoleHandler) http.HandlerFunc { return h.Apply },
			values:        url.Values{"product_id": {"A"}, "price": {"10"}},
			expectedFlash: "Please input a valid Promotion ID",
		},
		{
			name:          "Import without loader",
			call:          func(h *ConsoleHandler) http.HandlerFunc { return h.Import },
			values:        url.Values{"source": {"batch.csv"}},
			expectedFlash: "Product line import is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockPromotionClient)
			h, store := newTestHandler(client)
			w := httptest.NewRecorder()

			tt.call(h)(w, postForm("/actions", tt.values, nil))

			assert.Equal(t, http.StatusSeeOther, w.Code)
			_, c := store.Get(sessionCookie(t, w).Value)
			assert.Equal(t, tt.expectedFlash, c.State().Flash)
			client.AssertExpectations(t)
		})
	}
}

func TestConsoleHandler_ApplyAndState(t *testing.T) {
	client := new(MockPromotionClient)
	h, _ := newTestHandler(client)

	client.On("Apply", mock.Anything, "p1", model.ApplyRequest{Products: []model.ProductLine{
		{ProductID: "A", Price: "10"},
		{ProductID: "B", Price: "20"},
	}}).Return(&model.ApplyResponse{Products: []model.AppliedProductResult{{Price: 9.5}, {Price: 19.99}}}, nil)

	values := url.Values{
		"apply_promotion_id": {"p1"},
		"product_id":         {"A", "B"},
		"price":              {"10", "20"},
	}
	w := httptest.NewRecorder()
	h.Apply(w, postForm("/actions/apply", values, nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookie := sessionCookie(t, w)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.State(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var state form.State
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	require.Len(t, state.Rows, 2)
	assert.Equal(t, "9.50", state.Rows[0].NewPrice)
	assert.Equal(t, "19.99", state.Rows[1].NewPrice)
	client.AssertExpectations(t)
}

func TestConsoleHandler_Rows(t *testing.T) {
	h, store := newTestHandler(new(MockPromotionClient))

	w := httptest.NewRecorder()
	h.AddRow(w, postForm("/actions/rows", url.Values{"product_id": {"A"}, "price": {"1"}}, nil))
	cookie := sessionCookie(t, w)

	w = httptest.NewRecorder()
	h.AddRow(w, postForm("/actions/rows", url.Values{"product_id": {"A", "B"}, "price": {"1", "2"}}, cookie))

	_, c := store.Get(cookie.Value)
	require.Len(t, c.State().Rows, 3)

	req := postForm("/actions/rows/0/remove", url.Values{"product_id": {"A", "B", ""}, "price": {"1", "2", ""}}, cookie)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("index", "0")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w = httptest.NewRecorder()
	h.RemoveRow(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	rows := c.State().Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].ProductID)
	assert.Equal(t, form.ProductRow{}, rows[1])
}

func TestConsoleHandler_PageRendersState(t *testing.T) {
	client := new(MockPromotionClient)
	h, _ := newTestHandler(client)
	client.On("Search", mock.Anything, "").Return([]model.Promotion{
		{ID: "p1", Code: "<b>SAVE</b>", Percentage: 10, Products: []string{"A"}},
	}, nil)

	w := httptest.NewRecorder()
	h.Search(w, postForm("/actions/search", url.Values{}, nil))
	cookie := sessionCookie(t, w)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.Page(w, req)

	body := w.Body.String()
	assert.Contains(t, body, "&lt;b&gt;SAVE&lt;/b&gt;")
	assert.NotContains(t, body, "<b>SAVE</b>")
	assert.Contains(t, body, "Success")
}

func TestInputFrom(t *testing.T) {
	tests := []struct {
		name         string
		values       url.Values
		expectedRows []form.RowInput
	}{
		{
			name:         "No rows",
			values:       url.Values{"id": {"p1"}},
			expectedRows: nil,
		},
		{
			name:   "Paired rows",
			values: url.Values{"product_id": {"A", "B"}, "price": {"1", "2"}},
			expectedRows: []form.RowInput{
				{ProductID: "A", Price: "1"},
				{ProductID: "B", Price: "2"},
			},
		},
		{
			name:   "Missing trailing price",
			values: url.Values{"product_id": {"A", "B"}, "price": {"1"}},
			expectedRows: []form.RowInput{
				{ProductID: "A", Price: "1"},
				{ProductID: "B"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := inputFrom(tt.values)
			assert.Equal(t, tt.expectedRows, in.Rows)
			assert.Equal(t, tt.values.Get("id"), in.Fields.ID)
		})
	}
}

func TestConsoleHandler_InvalidForm(t *testing.T) {
	client := new(MockPromotionClient)
	h, _ := newTestHandler(client)

	req := httptest.NewRequest(http.MethodPost, "/actions/delete", strings.NewReader("id=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	middleware.RequestID(http.HandlerFunc(h.Delete)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "invalid form submission", resp.Error)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), resp.RequestID)
	client.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
