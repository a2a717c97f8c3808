package checkout

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

type PaymentDetails struct {
	CardNumber  string `json:"cardNumber"`
	CardHolder  string `json:"cardHolder"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
	CVV         string `json:"cvv"`
}

// ProcessPayment simulates the gateway: a Luhn-valid card number is charged,
// anything else is declined. Declines are recorded on the order before the
// error is returned.
func (s *Service) ProcessPayment(ctx context.Context, userID, orderID string, details PaymentDetails) (*domain.Order, string, error) {
	if userID == "" {
		return nil, "", domain.ErrUnauthorized
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, "", domain.ErrForbidden
	}
	if order.Payment.Status == domain.PaymentPaid {
		return nil, "", domain.Validationf("order %s is already paid", order.OrderNumber)
	}

	if !luhnValid(details.CardNumber) {
		order.Payment.Status = domain.PaymentFailed
		if err := s.orders.UpdatePayment(ctx, order.ID, order.Payment); err != nil {
			s.logger.Printf("order %s: record declined payment: %v", order.OrderNumber, err)
		}
		return nil, "", domain.ErrPaymentDeclined
	}

	txID := "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	now := time.Now().UTC()
	order.Payment.Status = domain.PaymentPaid
	order.Payment.TransactionID = &txID
	order.Payment.PaidAt = &now
	if err := s.orders.UpdatePayment(ctx, order.ID, order.Payment); err != nil {
		return nil, "", err
	}
	return order, txID, nil
}

// luhnValid runs the standard Luhn checksum over the digits of number.
// Non-digit separators are ignored; anything shorter than 12 digits fails.
func luhnValid(number string) bool {
	var digits []int
	for _, r := range number {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	if len(digits) < 12 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
