package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
)

type normalizedCreateOrderInput struct {
	UserID int64                 `json:"userId"`
	Status string                `json:"status"`
	Items  []normalizedItemInput `json:"items"`
}

type normalizedItemInput struct {
	ProductID int64  `json:"productId"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

// FingerprintCreateOrder builds a deterministic hash of the create-order payload (excluding the idempotency key).
// Line order is significant; prices are compared by value so "10" and "10.00" hash alike.
func FingerprintCreateOrder(input ordertypes.CreateOrderInput) (string, error) {
	payload, err := json.Marshal(normalizeCreateOrderInput(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeCreateOrderInput(input ordertypes.CreateOrderInput) normalizedCreateOrderInput {
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = string(domain.StatusPending)
	}
	items := make([]normalizedItemInput, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, normalizedItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
		})
	}
	return normalizedCreateOrderInput{UserID: input.UserID, Status: status, Items: items}
}
