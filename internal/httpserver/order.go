package httpserver

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/service/checkout"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	CustomerInfo    domain.CustomerInfo `json:"customerInfo" binding:"required"`
	ShippingAddress domain.Address      `json:"shippingAddress"`
	BillingAddress  domain.Address      `json:"billingAddress"`
	SameAsShipping  bool                `json:"sameAsShipping"`
	PaymentMethod   string              `json:"paymentMethod"`
	Notes           string              `json:"notes"`
}

type guestItemRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	VariantID *string `json:"variantId"`
	Quantity  int     `json:"quantity"`
}

type guestCheckoutRequest struct {
	CustomerInfo    domain.CustomerInfo `json:"customerInfo" binding:"required"`
	Items           []guestItemRequest  `json:"items" binding:"required"`
	ShippingAddress domain.Address      `json:"shippingAddress"`
	BillingAddress  domain.Address      `json:"billingAddress"`
	PaymentMethod   string              `json:"paymentMethod"`
	Notes           string              `json:"notes"`
}

type fulfillmentRequest struct {
	Status         string  `json:"status" binding:"required"`
	TrackingNumber *string `json:"trackingNumber"`
	Carrier        *string `json:"carrier"`
	Notes          string  `json:"notes"`
}

func (h *handlers) createFromCart(c *gin.Context) {
	id := callerIdentity(c)
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "customerInfo is required")
		return
	}
	order, err := h.deps.CheckoutSvc.CreateFromCart(c.Request.Context(), id.UserID, id.SessionID, checkout.CheckoutInput{
		CustomerInfo:   req.CustomerInfo,
		Billing:        req.BillingAddress,
		Shipping:       req.ShippingAddress,
		SameAsShipping: req.SameAsShipping,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{
		"order":       order,
		"orderNumber": order.OrderNumber,
	})
}

func (h *handlers) createGuest(c *gin.Context) {
	var req guestCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "customerInfo and items are required")
		return
	}
	in := checkout.GuestCheckoutInput{
		CustomerInfo:  req.CustomerInfo,
		Billing:       req.BillingAddress,
		Shipping:      req.ShippingAddress,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, checkout.GuestItemInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	order, err := h.deps.CheckoutSvc.CreateGuest(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{
		"order":       order,
		"orderNumber": order.OrderNumber,
	})
}

func (h *handlers) processPayment(c *gin.Context) {
	id := callerIdentity(c)
	var details checkout.PaymentDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		respondBadRequest(c, "payment details are required")
		return
	}
	order, txnID, err := h.deps.CheckoutSvc.ProcessPayment(c.Request.Context(), id.UserID, c.Param("orderId"), details)
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"order":         order,
		"transactionId": txnID,
	})
}

func (h *handlers) listOrders(c *gin.Context) {
	id := callerIdentity(c)
	if !id.IsUser() {
		respondError(c, h.deps.DevMode, domain.ErrUnauthorized)
		return
	}
	orders, err := h.deps.CheckoutSvc.ListOrders(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondData(c, http.StatusOK, orders)
}

func (h *handlers) getOrder(c *gin.Context) {
	id := callerIdentity(c)
	if !id.IsUser() {
		respondError(c, h.deps.DevMode, domain.ErrUnauthorized)
		return
	}
	order, err := h.deps.CheckoutSvc.GetOrder(c.Request.Context(), id.UserID, id.Admin, c.Param("orderId"))
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondData(c, http.StatusOK, order)
}

func (h *handlers) updateFulfillment(c *gin.Context) {
	id := callerIdentity(c)
	if !id.Admin {
		respondError(c, h.deps.DevMode, domain.ErrForbidden)
		return
	}
	var req fulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "status is required")
		return
	}
	order, err := h.deps.CheckoutSvc.UpdateFulfillment(c.Request.Context(), c.Param("orderId"), checkout.FulfillmentUpdate{
		Status:         domain.FulfillmentStatus(req.Status),
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(c, h.deps.DevMode, err)
		return
	}
	respondData(c, http.StatusOK, order)
}
