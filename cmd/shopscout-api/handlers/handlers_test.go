package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/observability"
	"github.com/shopscout-ai/shopscout/internal/orchestrator"
	"github.com/shopscout-ai/shopscout/internal/storage"
	"github.com/shopscout-ai/shopscout/internal/whatsapp"
)

type fakeService struct {
	result     *catalog.SearchResult
	performErr error
	lastReq    orchestrator.Request
	product    *storage.StoredProduct
	productErr error
}

func (f *fakeService) Perform(ctx context.Context, req orchestrator.Request, observe orchestrator.StepObserver) (*catalog.SearchResult, error) {
	f.lastReq = req
	if f.performErr != nil {
		return nil, f.performErr
	}
	if observe != nil {
		observe(orchestrator.StepEvent{Step: orchestrator.StepSearching, Message: "Buscando productos..."})
		observe(orchestrator.StepEvent{Step: orchestrator.StepDone, Message: "Listo"})
	}
	return f.result, nil
}

func (f *fakeService) ProductDetails(ctx context.Context, searchID, productID string) (*storage.StoredProduct, error) {
	if f.productErr != nil {
		return nil, f.productErr
	}
	return f.product, nil
}

type fakeReader struct {
	result  *catalog.SearchResult
	getErr  error
	history []catalog.SearchResult
	listErr error
}

func (f *fakeReader) GetByID(ctx context.Context, id string) (*catalog.SearchResult, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.result, nil
}

func (f *fakeReader) ListByUser(ctx context.Context, userID string, limit int) ([]catalog.SearchResult, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.history, nil
}

func sampleResult() *catalog.SearchResult {
	return &catalog.SearchResult{
		ID:                  "search-1",
		UserID:              "u1",
		Query:               "celular samsung",
		FinalRecommendation: "Te recomiendo el Galaxy S24.",
		TotalResults:        2,
		Products: []catalog.RecommendedListing{
			{
				Listing:       catalog.Listing{ProductID: "p1", Title: "Samsung Galaxy S24"},
				IsRecommended: true,
			},
		},
	}
}

func TestSearchHandler_Create(t *testing.T) {
	service := &fakeService{result: sampleResult()}
	handler := NewSearchHandler(observability.Nop(), service, &fakeReader{})

	body := `{"userId": "u1", "query": "celular samsung", "maxPrice": 500000, "useAI": true}`
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "celular samsung", service.lastReq.Query)
	assert.Equal(t, 500000.0, service.lastReq.MaxPrice)
	assert.True(t, service.lastReq.UseAI)

	var result catalog.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "search-1", result.ID)
	assert.True(t, result.Products[0].IsRecommended)
}

func TestSearchHandler_CreateRequiresQuery(t *testing.T) {
	handler := NewSearchHandler(observability.Nop(), &fakeService{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"userId": "u1"}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_CreateDefaultsAnonymousUser(t *testing.T) {
	service := &fakeService{result: sampleResult()}
	handler := NewSearchHandler(observability.Nop(), service, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query": "celular"}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)
	assert.Equal(t, "anonymous", service.lastReq.UserID)
}

func TestSearchHandler_CreateUpstreamFailure(t *testing.T) {
	service := &fakeService{performErr: fmt.Errorf("provider down")}
	handler := NewSearchHandler(observability.Nop(), service, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query": "celular"}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSearchHandler_Stream(t *testing.T) {
	service := &fakeService{result: sampleResult()}
	handler := NewSearchHandler(observability.Nop(), service, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/search/stream?q=celular&userId=u1&maxPrice=500000", nil)
	rec := httptest.NewRecorder()

	handler.Stream(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: step")
	assert.Contains(t, body, `"step":"searching"`)
	assert.Contains(t, body, "event: result")
	assert.Contains(t, body, `"id":"search-1"`)
	assert.Equal(t, 500000.0, service.lastReq.MaxPrice)
}

func TestSearchHandler_StreamErrorEvent(t *testing.T) {
	service := &fakeService{performErr: fmt.Errorf("provider down")}
	handler := NewSearchHandler(observability.Nop(), service, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/search/stream?q=celular", nil)
	rec := httptest.NewRecorder()

	handler.Stream(rec, req)

	assert.Contains(t, rec.Body.String(), "event: error")
	assert.Contains(t, rec.Body.String(), "provider down")
}

func TestSearchHandler_StreamRequiresQuery(t *testing.T) {
	handler := NewSearchHandler(observability.Nop(), &fakeService{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/search/stream", nil)
	rec := httptest.NewRecorder()

	handler.Stream(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestSearchHandler_Get(t *testing.T) {
	reader := &fakeReader{result: sampleResult()}
	handler := NewSearchHandler(observability.Nop(), &fakeService{}, reader)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/searches/search-1", nil),
		map[string]string{"searchId": "search-1"})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchHandler_GetNotFound(t *testing.T) {
	reader := &fakeReader{getErr: storage.ErrNotFound}
	handler := NewSearchHandler(observability.Nop(), &fakeService{}, reader)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/searches/nope", nil),
		map[string]string{"searchId": "nope"})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductsHandler_Get(t *testing.T) {
	service := &fakeService{product: &storage.StoredProduct{
		RecommendedListing: catalog.RecommendedListing{
			Listing: catalog.Listing{ProductID: "p1", Title: "Samsung Galaxy S24"},
		},
		Details: &catalog.ProductDetails{Description: "Pantalla AMOLED"},
	}}
	handler := NewProductsHandler(observability.Nop(), service)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/searches/s1/products/p1", nil),
		map[string]string{"searchId": "s1", "productId": "p1"})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pantalla AMOLED")
}

func TestProductsHandler_GetNotFound(t *testing.T) {
	service := &fakeService{productErr: storage.ErrNotFound}
	handler := NewProductsHandler(observability.Nop(), service)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/searches/s1/products/nope", nil),
		map[string]string{"searchId": "s1", "productId": "nope"})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryHandler_List(t *testing.T) {
	reader := &fakeReader{history: []catalog.SearchResult{*sampleResult()}}
	handler := NewHistoryHandler(observability.Nop(), reader)

	req := httptest.NewRequest(http.MethodGet, "/history?userId=u1", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "search-1")
}

func TestHistoryHandler_ListRequiresUser(t *testing.T) {
	handler := NewHistoryHandler(observability.Nop(), &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeConversation struct {
	handled []whatsapp.IncomingMessage
	done    chan struct{}
}

func (f *fakeConversation) Handle(ctx context.Context, msg whatsapp.IncomingMessage) error {
	f.handled = append(f.handled, msg)
	close(f.done)
	return nil
}

func TestWhatsAppHandler_Verify(t *testing.T) {
	handler := NewWhatsAppHandler(observability.Nop(), nil, "secreto")

	req := httptest.NewRequest(http.MethodGet,
		"/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=secreto&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()

	handler.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestWhatsAppHandler_VerifyRejectsBadToken(t *testing.T) {
	handler := NewWhatsAppHandler(observability.Nop(), nil, "secreto")

	req := httptest.NewRequest(http.MethodGet,
		"/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=incorrecto&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()

	handler.Verify(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWhatsAppHandler_ReceiveDispatchesMessage(t *testing.T) {
	conv := &fakeConversation{done: make(chan struct{})}
	handler := NewWhatsAppHandler(observability.Nop(), conv, "secreto")

	payload := `{"entry": [{"changes": [{"value": {"messages": [
		{"from": "549111", "type": "text", "text": {"body": "hola"}}
	]}}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	handler.Receive(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	<-conv.done
	require.Len(t, conv.handled, 1)
	assert.Equal(t, "hola", conv.handled[0].Text)
}

func TestWhatsAppHandler_ReceiveWithoutChannel(t *testing.T) {
	handler := NewWhatsAppHandler(observability.Nop(), nil, "secreto")

	req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.Receive(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
