package httpserver

import (
	"net/http"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	Quantity  int     `json:"quantity"`
	VariantID *string `json:"variantId"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type applyCouponRequest struct {
	CouponCode string `json:"couponCode" binding:"required"`
}

// cartOwner resolves the caller to a cart owner. Callers with neither a user
// nor a session get a zero owner; the service rejects mutations against it,
// while reads synthesize an empty cart.
func cartOwner(c *gin.Context) domain.CartOwner {
	id := callerIdentity(c)
	if !id.IsUser() && !id.IsAnonymous() {
		return domain.CartOwner{}
	}
	return id.Owner()
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondData(c, http.StatusOK, cart)
}

func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	cart, err := h.deps.CartSvc.AddItem(c.Request.Context(), cartOwner(c), req.ProductID, req.Quantity, req.VariantID)
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondData(c, http.StatusOK, cart)
}

func (h *handlers) updateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "quantity is required")
		return
	}
	cart, err := h.deps.CartSvc.UpdateItemQuantity(c.Request.Context(), cartOwner(c), c.Param("itemId"), req.Quantity)
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondNullable(c, cart)
}

func (h *handlers) removeItem(c *gin.Context) {
	cart, err := h.deps.CartSvc.RemoveItem(c.Request.Context(), cartOwner(c), c.Param("itemId"))
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondNullable(c, cart)
}

func (h *handlers) clearCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Clear(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondNullable(c, cart)
}

func (h *handlers) applyCoupon(c *gin.Context) {
	var req applyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "couponCode is required")
		return
	}
	cart, amount, discountType, err := h.deps.CartSvc.ApplyCoupon(c.Request.Context(), cartOwner(c), req.CouponCode)
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"cart":           cart,
		"discountAmount": amount,
		"discountType":   discountType,
	})
}

func (h *handlers) removeCoupon(c *gin.Context) {
	cart, err := h.deps.CartSvc.RemoveCoupon(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondData(c, http.StatusOK, cart)
}

type mergeCartRequest struct {
	SessionID string `json:"sessionId"`
}

// mergeCart folds the caller's anonymous session cart into their user cart.
// The session id comes from the body, falling back to the request's own
// session header or cookie.
func (h *handlers) mergeCart(c *gin.Context) {
	id := callerIdentity(c)
	if !id.IsUser() {
		respondError(c, h.deps.DevMode, domain.ErrUnauthorized)
		return
	}
	var req mergeCartRequest
	_ = c.ShouldBindJSON(&req)
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = id.SessionID
	}
	if sessionID == "" {
		respondBadRequest(c, "sessionId is required")
		return
	}
	cart, err := h.deps.CartSvc.Merge(c.Request.Context(), id.UserID, sessionID)
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondNullable(c, cart)
}
