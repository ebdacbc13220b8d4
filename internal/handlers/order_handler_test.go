package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/models"
	"woodshop/internal/pagination"
	"woodshop/internal/services"
)

type mockOrderService struct {
	createOrderFn     func(actor services.Actor, input services.CreateOrderInput) (*models.Order, error)
	getOrderFn        func(id uint) (*models.Order, error)
	listOrdersFn      func(filter services.OrderFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Order], error)
	updateOrderFn     func(actor services.Actor, id uint, input services.UpdateOrderInput) (*models.Order, error)
	deleteOrderFn     func(actor services.Actor, id uint) error
	assignCarpenterFn func(actor services.Actor, id uint, carpenterID *uint) (*models.Order, error)
	addItemFn         func(actor services.Actor, orderID uint, input services.OrderItemInput) (*models.Order, error)
	updateItemFn      func(actor services.Actor, orderID, itemID uint, input services.UpdateOrderItemInput) (*models.Order, error)
	removeItemFn      func(actor services.Actor, orderID, itemID uint) (*models.Order, error)
}

func (m *mockOrderService) CreateOrder(actor services.Actor, input services.CreateOrderInput) (*models.Order, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(actor, input)
	}
	return &models.Order{Number: input.Number}, nil
}

func (m *mockOrderService) GetOrder(id uint) (*models.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(id)
	}
	return &models.Order{}, nil
}

func (m *mockOrderService) ListOrders(filter services.OrderFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Order], error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(filter, page)
	}
	return &pagination.PageResponse[models.Order]{}, nil
}

func (m *mockOrderService) UpdateOrder(actor services.Actor, id uint, input services.UpdateOrderInput) (*models.Order, error) {
	if m.updateOrderFn != nil {
		return m.updateOrderFn(actor, id, input)
	}
	return &models.Order{}, nil
}

func (m *mockOrderService) DeleteOrder(actor services.Actor, id uint) error {
	if m.deleteOrderFn != nil {
		return m.deleteOrderFn(actor, id)
	}
	return nil
}

func (m *mockOrderService) AssignCarpenter(actor services.Actor, id uint, carpenterID *uint) (*models.Order, error) {
	if m.assignCarpenterFn != nil {
		return m.assignCarpenterFn(actor, id, carpenterID)
	}
	return &models.Order{CarpenterID: carpenterID}, nil
}

func (m *mockOrderService) AddItem(actor services.Actor, orderID uint, input services.OrderItemInput) (*models.Order, error) {
	if m.addItemFn != nil {
		return m.addItemFn(actor, orderID, input)
	}
	return &models.Order{}, nil
}

func (m *mockOrderService) UpdateItem(actor services.Actor, orderID, itemID uint, input services.UpdateOrderItemInput) (*models.Order, error) {
	if m.updateItemFn != nil {
		return m.updateItemFn(actor, orderID, itemID, input)
	}
	return &models.Order{}, nil
}

func (m *mockOrderService) RemoveItem(actor services.Actor, orderID, itemID uint) (*models.Order, error) {
	if m.removeItemFn != nil {
		return m.removeItemFn(actor, orderID, itemID)
	}
	return &models.Order{}, nil
}

func (m *mockOrderService) Statistics() (*services.OrderStatistics, error) {
	return &services.OrderStatistics{ByStatus: map[string]int64{}}, nil
}

func (m *mockOrderService) RefreshStatuses(_ time.Time) (int64, error) {
	return 0, nil
}

func setupOrderRouter(handler *OrderHandler, role models.Role) *gin.Engine {
	r := gin.New()
	r.Use(injectUser(1, role))
	r.GET("/orders", handler.ListOrders)
	r.GET("/orders/statistics", handler.Statistics)
	r.GET("/orders/:id", handler.GetOrder)
	r.POST("/orders", handler.CreateOrder)
	r.PUT("/orders/:id", handler.UpdateOrder)
	r.DELETE("/orders/:id", handler.DeleteOrder)
	r.PUT("/orders/:id/carpenter", handler.AssignCarpenter)
	r.POST("/orders/:id/items", handler.AddItem)
	r.PUT("/orders/:id/items/:itemId", handler.UpdateItem)
	r.DELETE("/orders/:id/items/:itemId", handler.RemoveItem)
	return r
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	t.Run("parses dates and items", func(t *testing.T) {
		var got services.CreateOrderInput
		var actor services.Actor
		svc := &mockOrderService{
			createOrderFn: func(a services.Actor, input services.CreateOrderInput) (*models.Order, error) {
				got, actor = input, a
				return &models.Order{Number: input.Number, Total: 5500}, nil
			},
		}
		r := setupOrderRouter(NewOrderHandler(svc), models.RoleAdministrator)

		rec := doRequest(r, "POST", "/orders", `{
			"number":"ORD-1","customer":"Ana","entry_date":"2026-04-01","exit_date":"2026-04-20",
			"items":[{"material_id":1,"quantity":2.5},{"material_id":2,"quantity":1,"unit_price":500}]
		}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.EntryDate == nil || !got.EntryDate.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected entry date %v", got.EntryDate)
		}
		if got.ExitDate == nil || got.ExitDate.Day() != 20 {
			t.Errorf("unexpected exit date %v", got.ExitDate)
		}
		if len(got.Items) != 2 || got.Items[0].Quantity != 2.5 || got.Items[0].UnitPrice != nil {
			t.Errorf("unexpected items %+v", got.Items)
		}
		if got.Items[1].UnitPrice == nil || *got.Items[1].UnitPrice != 500 {
			t.Error("explicit unit price must be forwarded")
		}
		if actor.UserID != 1 || actor.Role != models.RoleAdministrator {
			t.Errorf("unexpected actor %+v", actor)
		}
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		r := setupOrderRouter(NewOrderHandler(&mockOrderService{}), models.RoleAdministrator)

		rec := doRequest(r, "POST", "/orders", `{"number":"ORD-1","customer":"Ana","items":[{"material_id":1,"quantity":0}]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects oversized quantity and price", func(t *testing.T) {
		called := false
		svc := &mockOrderService{
			createOrderFn: func(_ services.Actor, _ services.CreateOrderInput) (*models.Order, error) {
				called = true
				return &models.Order{}, nil
			},
			updateItemFn: func(_ services.Actor, _, _ uint, _ services.UpdateOrderItemInput) (*models.Order, error) {
				called = true
				return &models.Order{}, nil
			},
		}
		r := setupOrderRouter(NewOrderHandler(svc), models.RoleAdministrator)

		for _, item := range []string{
			`{"material_id":1,"quantity":1e17}`,
			`{"material_id":1,"quantity":1,"unit_price":100000000000}`,
		} {
			rec := doRequest(r, "POST", "/orders", `{"number":"ORD-1","customer":"Ana","items":[`+item+`]}`)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", item, rec.Code)
			}
		}
		rec := doRequest(r, "PUT", "/orders/2/items/7", `{"quantity":1e17}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("update item: expected 400, got %d", rec.Code)
		}
		if called {
			t.Error("service must not be reached")
		}
	})

	t.Run("rejects bad date", func(t *testing.T) {
		r := setupOrderRouter(NewOrderHandler(&mockOrderService{}), models.RoleAdministrator)

		rec := doRequest(r, "POST", "/orders", `{"number":"ORD-1","customer":"Ana","exit_date":"20/04/2026"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		r := setupOrderRouter(NewOrderHandler(&mockOrderService{}), models.RoleAdministrator)

		rec := doRequest(r, "POST", "/orders", `{"number":"ORD-1","customer":"Ana","status":"shipped"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("maps material not found", func(t *testing.T) {
		svc := &mockOrderService{
			createOrderFn: func(_ services.Actor, _ services.CreateOrderInput) (*models.Order, error) {
				return nil, apperrors.ErrMaterialNotFound
			},
		}
		r := setupOrderRouter(NewOrderHandler(svc), models.RoleAdministrator)

		rec := doRequest(r, "POST", "/orders", `{"number":"ORD-1","customer":"Ana","items":[{"material_id":9,"quantity":1}]}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "MATERIAL_NOT_FOUND")
	})
}

func TestOrderHandler_ListOrders(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var got services.OrderFilter
		svc := &mockOrderService{
			listOrdersFn: func(filter services.OrderFilter, _ pagination.PageRequest) (*pagination.PageResponse[models.Order], error) {
				got = filter
				return &pagination.PageResponse[models.Order]{}, nil
			},
		}
		r := setupOrderRouter(NewOrderHandler(svc), models.RoleVisitor)

		rec := doRequest(r, "GET", "/orders?status=overdue&carpenter_id=3&customer=ana", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.Status == nil || *got.Status != models.StatusOverdue {
			t.Errorf("unexpected status %v", got.Status)
		}
		if got.CarpenterID == nil || *got.CarpenterID != 3 || got.Customer != "ana" {
			t.Errorf("unexpected filter %+v", got)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		r := setupOrderRouter(NewOrderHandler(&mockOrderService{}), models.RoleVisitor)

		rec := doRequest(r, "GET", "/orders?status=lost", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects oversized page", func(t *testing.T) {
		r := setupOrderRouter(NewOrderHandler(&mockOrderService{}), models.RoleVisitor)

		rec := doRequest(r, "GET", "/orders?page_size=500", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestOrderHandler_GetOrder(t *testing.T) {
	svc := &mockOrderService{
		getOrderFn: func(_ uint) (*models.Order, error) { return nil, apperrors.ErrOrderNotFound },
	}
	r := setupOrderRouter(NewOrderHandler(svc), models.RoleVisitor)

	rec := doRequest(r, "GET", "/orders/5", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "ORDER_NOT_FOUND")

	rec = doRequest(r, "GET", "/orders/0", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for id 0, got %d", rec.Code)
	}
}

func TestOrderHandler_UpdateOrder(t *testing.T) {
	t.Run("empty exit_date clears it", func(t *testing.T) {
		var got services.UpdateOrderInput
		svc := &mockOrderService{
			updateOrderFn: func(_ services.Actor, _ uint, input services.UpdateOrderInput) (*models.Order, error) {
				got = input
				return &models.Order{}, nil
			},
		}
		r := setupOrderRouter(NewOrderHandler(svc), models.RoleAdministrator)

		rec := doRequest(r, "PUT", "/orders/1", `{"exit_date":"","status":"completed"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.ClearExitDate || got.ExitDate != nil {
			t.Errorf("expected exit date to be cleared, got %+v", got)
		}
		if got.Status == nil || *got.Status != models.StatusCompleted {
			t.Error("expected explicit status")
		}
		if got.Items != nil {
			t.Error("absent items must stay nil")
		}
	})

	t.Run("forwards item replacement", func(t *testing.T) {
		var got services.UpdateOrderInput
		svc := &mockOrderService{
			updateOrderFn: func(_ services.Actor, _ uint, input services.UpdateOrderInput) (*models.Order, error) {
				got = input
				return &models.Order{}, nil
			},
		}
		r := setupOrderRouter(NewOrderHandler(svc), models.RoleAdministrator)

		rec := doRequest(r, "PUT", "/orders/1", `{"items":[{"material_id":4,"quantity":3}]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.Items == nil || len(*got.Items) != 1 || (*got.Items)[0].MaterialID != 4 {
			t.Errorf("unexpected items %+v", got.Items)
		}
	})

	t.Run("carpenter restriction surfaces as 403", func(t *testing.T) {
		svc := &mockOrderService{
			updateOrderFn: func(actor services.Actor, _ uint, input services.UpdateOrderInput) (*models.Order, error) {
				if actor.Role == models.RoleCarpenter && input.Customer != nil {
					return nil, apperrors.ErrForbidden
				}
				return &models.Order{}, nil
			},
		}
		r := setupOrderRouter(NewOrderHandler(svc), models.RoleCarpenter)

		rec := doRequest(r, "PUT", "/orders/1", `{"customer":"Someone else"}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestOrderHandler_AssignCarpenter(t *testing.T) {
	var got *uint
	called := false
	svc := &mockOrderService{
		assignCarpenterFn: func(_ services.Actor, _ uint, carpenterID *uint) (*models.Order, error) {
			called, got = true, carpenterID
			return &models.Order{CarpenterID: carpenterID}, nil
		},
	}
	r := setupOrderRouter(NewOrderHandler(svc), models.RoleCarpenter)

	rec := doRequest(r, "PUT", "/orders/1/carpenter", `{"carpenter_id":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !called || got != nil {
		t.Error("null carpenter_id should unassign")
	}

	rec = doRequest(r, "PUT", "/orders/1/carpenter", `{"carpenter_id":6}`)
	if rec.Code != http.StatusOK || got == nil || *got != 6 {
		t.Fatalf("expected carpenter 6, got %v (%d)", got, rec.Code)
	}
}

func TestOrderHandler_Items(t *testing.T) {
	t.Run("update item parses both ids", func(t *testing.T) {
		var gotOrder, gotItem uint
		var gotInput services.UpdateOrderItemInput
		svc := &mockOrderService{
			updateItemFn: func(_ services.Actor, orderID, itemID uint, input services.UpdateOrderItemInput) (*models.Order, error) {
				gotOrder, gotItem, gotInput = orderID, itemID, input
				return &models.Order{Total: 3000}, nil
			},
		}
		r := setupOrderRouter(NewOrderHandler(svc), models.RoleAdministrator)

		rec := doRequest(r, "PUT", "/orders/2/items/7", `{"quantity":3}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotOrder != 2 || gotItem != 7 || gotInput.Quantity == nil || *gotInput.Quantity != 3 {
			t.Errorf("unexpected call %d/%d %+v", gotOrder, gotItem, gotInput)
		}
		order := parseJSON(t, rec)["order"].(map[string]interface{})
		if order["total"] != float64(3000) {
			t.Errorf("expected total 3000, got %v", order["total"])
		}
	})

	t.Run("add item returns 201", func(t *testing.T) {
		r := setupOrderRouter(NewOrderHandler(&mockOrderService{}), models.RoleAdministrator)

		rec := doRequest(r, "POST", "/orders/2/items", `{"material_id":1,"quantity":1}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	})

	t.Run("remove item maps not found", func(t *testing.T) {
		svc := &mockOrderService{
			removeItemFn: func(_ services.Actor, _, _ uint) (*models.Order, error) {
				return nil, apperrors.ErrOrderItemNotFound
			},
		}
		r := setupOrderRouter(NewOrderHandler(svc), models.RoleAdministrator)

		rec := doRequest(r, "DELETE", "/orders/2/items/99", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ORDER_ITEM_NOT_FOUND")
	})
}

func TestOrderHandler_DeleteOrder(t *testing.T) {
	var deleted uint
	svc := &mockOrderService{
		deleteOrderFn: func(_ services.Actor, id uint) error {
			deleted = id
			return nil
		},
	}
	r := setupOrderRouter(NewOrderHandler(svc), models.RoleAdministrator)

	rec := doRequest(r, "DELETE", "/orders/11", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deleted != 11 {
		t.Errorf("expected order 11 deleted, got %d", deleted)
	}
}
