package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dairy-subscription-service/internal/domain/delivery"
	xerrors "dairy-subscription-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	skipErr     error
	lastChannel delivery.FulfillmentChannel
	lastReason  string
}

func (s *stubService) Skip(_ context.Context, _ int64, entryID int64) (*delivery.SkipResult, error) {
	if s.skipErr != nil {
		return nil, s.skipErr
	}
	amount := decimal.NewFromInt(96)
	return &delivery.SkipResult{EntryID: entryID, NewStatus: delivery.StatusSkipped, RefundAmount: &amount}, nil
}

func (s *stubService) MarkDelivered(_ context.Context, id int64, channel delivery.FulfillmentChannel) (*delivery.Entry, error) {
	s.lastChannel = channel
	return &delivery.Entry{ID: id, Status: delivery.StatusDelivered}, nil
}

func (s *stubService) MarkNotDelivered(_ context.Context, id int64, reason string) (*delivery.Entry, error) {
	s.lastReason = reason
	return &delivery.Entry{ID: id, Status: delivery.StatusNotDelivered}, nil
}

func (s *stubService) Cancel(_ context.Context, id int64, reason string) (*delivery.Entry, error) {
	s.lastReason = reason
	return &delivery.Entry{ID: id, Status: delivery.StatusCancelled}, nil
}

func (s *stubService) Manifest(context.Context, *delivery.ManifestFilters) ([]delivery.ManifestLine, error) {
	return []delivery.ManifestLine{}, nil
}

func router(svc DeliveryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDeliveryHandler(svc)
	r := gin.New()
	authed := r.Group("", func(c *gin.Context) { c.Set("identity_id", int64(501)) })
	authed.POST("/deliveries/:id/skip", h.Skip)
	authed.POST("/admin/deliveries/:id/deliver", h.MarkDelivered)
	authed.POST("/admin/deliveries/:id/not-delivered", h.MarkNotDelivered)
	authed.GET("/admin/deliveries", h.Manifest)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSkip(t *testing.T) {
	w := do(router(&stubService{}), http.MethodPost, "/deliveries/102/skip", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			NewStatus    string `json:"new_status"`
			RefundAmount string `json:"refund_amount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "SKIPPED", body.Data.NewStatus)
	assert.Equal(t, "96", body.Data.RefundAmount)
}

func TestSkip_ErrorStatuses(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{xerrors.New("already skipped").WithHint("delivery is already SKIPPED").Mark(xerrors.ErrConflict), http.StatusConflict},
		{xerrors.New("today").Mark(xerrors.ErrInvalidOperation), http.StatusConflict},
		{xerrors.New("missing").Mark(xerrors.ErrNotFound), http.StatusNotFound},
		{xerrors.New("db").Mark(xerrors.ErrUnavailable), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		w := do(router(&stubService{skipErr: tt.err}), http.MethodPost, "/deliveries/102/skip", "")
		assert.Equal(t, tt.code, w.Code, "%v", tt.err)
	}

	w := do(router(&stubService{}), http.MethodPost, "/deliveries/abc/skip", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSkip_ConflictCarriesHint(t *testing.T) {
	err := xerrors.New("entry 102 is SKIPPED").WithHint("delivery is already SKIPPED").Mark(xerrors.ErrConflict)
	w := do(router(&stubService{skipErr: err}), http.MethodPost, "/deliveries/102/skip", "")
	assert.Contains(t, w.Body.String(), "delivery is already SKIPPED")
}

func TestAdminTransitions(t *testing.T) {
	svc := &stubService{}
	r := router(svc)

	w := do(r, http.MethodPost, "/admin/deliveries/5/deliver", `{"channel":"pickup"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, delivery.ChannelPickup, svc.lastChannel)

	w = do(r, http.MethodPost, "/admin/deliveries/5/deliver", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, delivery.FulfillmentChannel(""), svc.lastChannel)

	w = do(r, http.MethodPost, "/admin/deliveries/5/deliver", `{"channel":"drone"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/admin/deliveries/5/not-delivered", `{"reason":"gate locked"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gate locked", svc.lastReason)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/admin/deliveries", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin/deliveries?date=2026-10-19", "").Code)
}
