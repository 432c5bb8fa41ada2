package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"storefront-cart/internal/domain"
	customersvc "storefront-cart/internal/service/customer"
)

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	CustomerID  string `json:"customer_id"`
}

func (h *handlers) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	customer, err := h.deps.CustomerSvc.Signup(c.Request.Context(), customersvc.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *handlers) token(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		badRequest(c, "email and password are required")
		return
	}
	customer, token, err := h.deps.CustomerSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.deps.CustomerSvc.AccessTTLSeconds(),
		CustomerID:  customer.ID,
	})
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.deps.CustomerSvc.Logout(c.Request.Context(), c.GetString(tokenKey)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products)})
}

func (h *handlers) getProduct(c *gin.Context) {
	product, err := h.deps.ProductSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handlers) validatePromotion(c *gin.Context) {
	result, err := h.deps.CartSvc.ValidatePromotion(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

type promotionRequest struct {
	Code string `json:"code"`
}

func (h *handlers) getCart(c *gin.Context) {
	h.respondCart(c, http.StatusOK)
}

func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	if err := h.deps.CartSvc.AddItem(c.Request.Context(), currentCustomer(c).ID, req.ProductID); err != nil {
		writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusCreated)
}

// removeItem treats a line that is already gone as removed.
func (h *handlers) removeItem(c *gin.Context) {
	if err := h.deps.CartSvc.RemoveItem(c.Request.Context(), currentCustomer(c).ID, c.Param("productId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.deps.CartSvc.Clear(c.Request.Context(), currentCustomer(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// applyPromotion answers 200 for rejected codes too; Valid tells them apart.
func (h *handlers) applyPromotion(c *gin.Context) {
	var req promotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	result, err := h.deps.CartSvc.ApplyPromotion(c.Request.Context(), currentCustomer(c).ID, req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) removePromotion(c *gin.Context) {
	if err := h.deps.CartSvc.RemovePromotion(c.Request.Context(), currentCustomer(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) respondCart(c *gin.Context, status int) {
	view, err := h.deps.CartSvc.Get(c.Request.Context(), currentCustomer(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, toCartResponse(view))
}
