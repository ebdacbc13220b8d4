package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/models"
	"woodshop/internal/services"
)

type mockCarpenterService struct {
	createCarpenterFn func(actor services.Actor, input services.CarpenterInput) (*models.Carpenter, error)
	getCarpenterFn    func(id uint) (*models.Carpenter, error)
	updateCarpenterFn func(actor services.Actor, id uint, input services.CarpenterInput) (*models.Carpenter, error)
	deleteCarpenterFn func(actor services.Actor, id uint) error
}

func (m *mockCarpenterService) CreateCarpenter(actor services.Actor, input services.CarpenterInput) (*models.Carpenter, error) {
	if m.createCarpenterFn != nil {
		return m.createCarpenterFn(actor, input)
	}
	return &models.Carpenter{}, nil
}

func (m *mockCarpenterService) GetCarpenter(id uint) (*models.Carpenter, error) {
	if m.getCarpenterFn != nil {
		return m.getCarpenterFn(id)
	}
	return &models.Carpenter{}, nil
}

func (m *mockCarpenterService) ListCarpenters(activeOnly bool) ([]services.CarpenterWithStats, error) {
	return []services.CarpenterWithStats{{
		Carpenter:   models.Carpenter{Name: "Joao", IsActive: true},
		OrderCounts: map[string]int64{"received": 2},
		TotalOrders: 2,
	}}, nil
}

func (m *mockCarpenterService) UpdateCarpenter(actor services.Actor, id uint, input services.CarpenterInput) (*models.Carpenter, error) {
	if m.updateCarpenterFn != nil {
		return m.updateCarpenterFn(actor, id, input)
	}
	return &models.Carpenter{}, nil
}

func (m *mockCarpenterService) DeleteCarpenter(actor services.Actor, id uint) error {
	if m.deleteCarpenterFn != nil {
		return m.deleteCarpenterFn(actor, id)
	}
	return nil
}

func setupCarpenterRouter(handler *CarpenterHandler) *gin.Engine {
	r := gin.New()
	r.Use(injectUser(1, models.RoleAdministrator))
	r.GET("/carpenters", handler.ListCarpenters)
	r.GET("/carpenters/:id", handler.GetCarpenter)
	r.POST("/carpenters", handler.CreateCarpenter)
	r.PUT("/carpenters/:id", handler.UpdateCarpenter)
	r.DELETE("/carpenters/:id", handler.DeleteCarpenter)
	return r
}

func TestCarpenterHandler_CreateCarpenter(t *testing.T) {
	t.Run("returns 201", func(t *testing.T) {
		r := setupCarpenterRouter(NewCarpenterHandler(&mockCarpenterService{}))

		rec := doRequest(r, "POST", "/carpenters", `{"name":"Joao","specialty":"cabinets"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		r := setupCarpenterRouter(NewCarpenterHandler(&mockCarpenterService{}))

		rec := doRequest(r, "POST", "/carpenters", `{"name":"Joao","email":"not-an-email"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("maps duplicate", func(t *testing.T) {
		svc := &mockCarpenterService{
			createCarpenterFn: func(_ services.Actor, _ services.CarpenterInput) (*models.Carpenter, error) {
				return nil, apperrors.ErrDuplicateCarpenter
			},
		}
		r := setupCarpenterRouter(NewCarpenterHandler(svc))

		rec := doRequest(r, "POST", "/carpenters", `{"name":"Joao"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_CARPENTER")
	})
}

func TestCarpenterHandler_ListCarpenters(t *testing.T) {
	r := setupCarpenterRouter(NewCarpenterHandler(&mockCarpenterService{}))

	rec := doRequest(r, "GET", "/carpenters", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	carpenters := parseJSON(t, rec)["carpenters"].([]interface{})
	first := carpenters[0].(map[string]interface{})
	if first["name"] != "Joao" || first["total_orders"] != float64(2) {
		t.Errorf("unexpected carpenter %v", first)
	}
}

func TestCarpenterHandler_UpdateCarpenter(t *testing.T) {
	var got services.CarpenterInput
	svc := &mockCarpenterService{
		updateCarpenterFn: func(_ services.Actor, _ uint, input services.CarpenterInput) (*models.Carpenter, error) {
			got = input
			return &models.Carpenter{}, nil
		},
	}
	r := setupCarpenterRouter(NewCarpenterHandler(svc))

	rec := doRequest(r, "PUT", "/carpenters/2", `{"is_active":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.IsActive == nil || *got.IsActive || got.Name != nil {
		t.Errorf("unexpected input %+v", got)
	}
}

func TestCarpenterHandler_GetAndDelete(t *testing.T) {
	svc := &mockCarpenterService{
		getCarpenterFn:    func(_ uint) (*models.Carpenter, error) { return nil, apperrors.ErrCarpenterNotFound },
		deleteCarpenterFn: func(_ services.Actor, _ uint) error { return nil },
	}
	r := setupCarpenterRouter(NewCarpenterHandler(svc))

	rec := doRequest(r, "GET", "/carpenters/9", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = doRequest(r, "DELETE", "/carpenters/9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
