package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/farmstandhq/farmstand-backend/api/middleware"
	ordersvc "github.com/farmstandhq/farmstand-backend/internal/orders"
	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
)

type stubOrderService struct {
	order *models.Order
	views []ordersvc.FarmerOrderView
	err   error

	statusOrder uuid.UUID
	statusEmail string
	statusInput ordersvc.StatusUpdateInput
}

func (s *stubOrderService) Checkout(_ context.Context, _ uuid.UUID, _ ordersvc.CheckoutInput) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) Get(_ context.Context, _, _ uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) ListForBuyer(_ context.Context, _ uuid.UUID) ([]models.Order, error) {
	if s.order == nil {
		return nil, s.err
	}
	return []models.Order{*s.order}, s.err
}

func (s *stubOrderService) ListForFarmer(_ context.Context, _ string) ([]ordersvc.FarmerOrderView, error) {
	return s.views, s.err
}

func (s *stubOrderService) UpdateFarmerStatus(_ context.Context, orderID uuid.UUID, email string, input ordersvc.StatusUpdateInput) (*models.Order, error) {
	s.statusOrder = orderID
	s.statusEmail = email
	s.statusInput = input
	return s.order, s.err
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCheckoutSuccess(t *testing.T) {
	svc := &stubOrderService{order: &models.Order{ID: uuid.New(), Status: enums.OrderStatusPending}}
	handler := Checkout(svc, nil)

	body := `{"address":{"name":"Pat","street":"1 Main St","city":"Salem","state":"OR","zip":"97301","phone":"555-0100"}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "only 1 of \"Eggs\" available, requested 3")}
	handler := Checkout(svc, nil)

	body := `{"address":{"name":"Pat","street":"1 Main St","city":"Salem","state":"OR","zip":"97301"}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders", body))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestOrderGetInvalidID(t *testing.T) {
	handler := OrderGet(&stubOrderService{}, nil)

	req := withURLParam(authedRequest(http.MethodGet, "/api/v1/orders/nope", ""), "orderId", "nope")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestFarmerOrderStatusUpdate(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{order: &models.Order{ID: orderID, Status: enums.OrderStatusConfirmed}}
	handler := FarmerOrderStatusUpdate(svc, nil)

	req := authedRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String(), `{"status":"confirmed"}`)
	req = req.WithContext(middleware.WithUserEmail(req.Context(), "amy@greenacres.test"))
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.statusOrder != orderID {
		t.Fatalf("expected order %s got %s", orderID, svc.statusOrder)
	}
	if svc.statusEmail != "amy@greenacres.test" {
		t.Fatalf("unexpected email %q", svc.statusEmail)
	}
	if svc.statusInput.Status != "confirmed" {
		t.Fatalf("unexpected status %q", svc.statusInput.Status)
	}
}

func TestFarmerOrderStatusUpdateConflict(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from delivered to pending")}
	handler := FarmerOrderStatusUpdate(svc, nil)

	req := authedRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String(), `{"status":"pending"}`)
	req = req.WithContext(middleware.WithUserEmail(req.Context(), "amy@greenacres.test"))
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestFarmerOrderListRequiresEmail(t *testing.T) {
	handler := FarmerOrderList(&stubOrderService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/farmers/me/orders", ""))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
