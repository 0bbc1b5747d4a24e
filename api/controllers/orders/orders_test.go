package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubOrdersService struct {
	view *internalorders.StatusView
	err  error
}

func (s stubOrdersService) GetStatus(ctx context.Context, orderID uuid.UUID) (*internalorders.StatusView, error) {
	return s.view, s.err
}

func serve(t *testing.T, svc internalorders.Service, id string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Get("/api/v1/orders/{orderId}", Status(svc, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id, nil))
	return rec
}

func TestStatusReturnsView(t *testing.T) {
	id := uuid.New()
	rec := serve(t, stubOrdersService{view: &internalorders.StatusView{ID: id, Status: enums.OrderStatusPaid, Total: 2895}}, id.String())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Data internalorders.StatusView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.ID != id || body.Data.Status != enums.OrderStatusPaid || body.Data.Total != 2895 {
		t.Fatalf("unexpected view %+v", body.Data)
	}
}

func TestStatusInvalidID(t *testing.T) {
	rec := serve(t, stubOrdersService{}, "nope")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStatusNotFound(t *testing.T) {
	rec := serve(t, stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}, uuid.NewString())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
