package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"promo-console/internal/audit"
	"promo-console/internal/form"
	"promo-console/internal/handler"
	"promo-console/internal/model"
	"promo-console/internal/promoapi"
	"promo-console/internal/router"
	"promo-console/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePromotionService serves a single promotion and applies a flat
// ten percent discount.
func fakePromotionService(t *testing.T) *httptest.Server {
	t.Helper()

	promotion := model.Promotion{
		ID:         "p1",
		Code:       "SAVE10",
		Percentage: 10,
		Products:   []string{"A", "B"},
		StartDate:  1552089600,
		ExpiryDate: 1554768000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /promotions/p1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(promotion)
	})
	mux.HandleFunc("GET /promotions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(model.ErrorResponse{
			Message: "Promotion with id '" + r.PathValue("id") + "' was not found.",
		})
	})
	mux.HandleFunc("POST /promotions/p1/apply", func(w http.ResponseWriter, r *http.Request) {
		var req model.ApplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		resp := model.ApplyResponse{Products: []model.AppliedProductResult{{Price: 9}, {Price: 18}}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type consoleClient struct {
	t      *testing.T
	server http.Handler
	cookie *http.Cookie
}

func (c *consoleClient) post(path string, values url.Values) {
	c.t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("admin", "test-password")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()

	c.server.ServeHTTP(w, req)

	require.Equal(c.t, http.StatusSeeOther, w.Code)
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == handler.SessionCookie {
			c.cookie = cookie
		}
	}
}

func (c *consoleClient) state() form.State {
	c.t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.SetBasicAuth("admin", "test-password")
	req.AddCookie(c.cookie)
	w := httptest.NewRecorder()

	c.server.ServeHTTP(w, req)

	require.Equal(c.t, http.StatusOK, w.Code)
	var state form.State
	require.NoError(c.t, json.NewDecoder(w.Body).Decode(&state))
	return state
}

func TestConsole_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	api := fakePromotionService(t)
	logger := zerolog.Nop()

	client := promoapi.NewClient(api.URL, 5*time.Second, logger)
	store := session.NewStore(func(id string) *form.Controller {
		return form.NewController(id, client, nil, testDB.Recorder, logger)
	}, time.Hour, logger)
	server := router.New(handler.NewConsoleHandler(store, logger), router.Credentials{
		User:     "admin",
		Password: "test-password",
	}, logger)

	t.Run("Retrieve then apply", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		c := &consoleClient{t: t, server: server}

		c.post("/actions/retrieve", url.Values{"id": {"p1"}})
		state := c.state()
		assert.Equal(t, "SAVE10", state.Fields.Code)
		assert.Equal(t, "03/09/2019", state.Fields.StartDate)
		assert.Equal(t, "A,B", state.Fields.Products)

		c.post("/actions/apply", url.Values{
			"apply_promotion_id": {"p1"},
			"product_id":         {"A", "B"},
			"price":              {"10", "20"},
		})
		state = c.state()
		require.Len(t, state.Rows, 2)
		assert.Equal(t, "9.00", state.Rows[0].NewPrice)
		assert.Equal(t, "18.00", state.Rows[1].NewPrice)

		entries, err := testDB.Recorder.ListByPromotion(context.Background(), "p1", 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, form.ActionRetrieve, entries[0].Action)
		assert.Equal(t, form.ActionApply, entries[1].Action)
		assert.Equal(t, audit.OutcomeSuccess, entries[1].Outcome)
	})

	t.Run("Retrieve unknown promotion", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		c := &consoleClient{t: t, server: server}

		c.post("/actions/retrieve", url.Values{"id": {"nope"}, "code": {"OLD"}})

		state := c.state()
		assert.Equal(t, form.Fields{ID: "nope"}, state.Fields)
		assert.Equal(t, "Promotion with id 'nope' was not found.", state.Flash)

		entries, err := testDB.Recorder.ListByPromotion(context.Background(), "nope", 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, audit.OutcomeFailure, entries[0].Outcome)
	})
}
