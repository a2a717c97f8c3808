package checkout

import (
	"context"
	"time"

	"storefront/internal/domain"
)

type FulfillmentUpdate struct {
	Status         domain.FulfillmentStatus
	TrackingNumber *string
	Carrier        *string
	Notes          string
}

// UpdateFulfillment advances an order along pending -> confirmed ->
// processing -> shipped -> delivered, or cancels it from any non-terminal
// state. Shipped/delivered transitions stamp their timestamps.
func (s *Service) UpdateFulfillment(ctx context.Context, orderID string, in FulfillmentUpdate) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Fulfillment.Status.CanTransition(in.Status) {
		return nil, domain.Validationf("cannot move order from %s to %s", order.Fulfillment.Status, in.Status)
	}

	now := time.Now().UTC()
	order.Fulfillment.Status = in.Status
	if in.TrackingNumber != nil {
		order.Fulfillment.TrackingNumber = in.TrackingNumber
	}
	if in.Carrier != nil {
		order.Fulfillment.Carrier = in.Carrier
	}
	if in.Notes != "" {
		order.Fulfillment.Notes = in.Notes
	}
	switch in.Status {
	case domain.FulfillmentShipped:
		order.Fulfillment.ShippedAt = &now
	case domain.FulfillmentDelivered:
		order.Fulfillment.DeliveredAt = &now
	}

	if err := s.orders.UpdateFulfillment(ctx, order.ID, order.Fulfillment); err != nil {
		return nil, err
	}
	return order, nil
}
