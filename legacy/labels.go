package legacy

import (
	"strings"

	"github.com/DaniilNightingale/EMPIREsite3/models"
)

// Order status labels as stored by the previous storefront
var orderStatusLabels = map[string]models.OrderStatus{
	"создан заказ":        models.OrderStatusCreated,
	"принят к исполнению": models.OrderStatusAccepted,
	"не оплачено":         models.OrderStatusUnpaid,
	"печатается":          models.OrderStatusPrinting,
	"красится":            models.OrderStatusColoring,
	"упаковывается":       models.OrderStatusPackaging,
	"задерживается":       models.OrderStatusDelayed,
	"отменен":             models.OrderStatusCancelled,
	"готово":              models.OrderStatusReady,
}

var requestStatusLabels = map[string]models.RequestStatus{
	"в обработке": models.RequestStatusPending,
	"ожидает":     models.RequestStatusWaiting,
	"выполнен":    models.RequestStatusFulfilled,
	"отказано":    models.RequestStatusRejected,
}

// OrderStatusFromLabel maps a stored label (or an already normalized status) to an
// OrderStatus. Unknown labels fall back to created and report false.
func OrderStatusFromLabel(label string) (models.OrderStatus, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if status, ok := orderStatusLabels[label]; ok {
		return status, true
	}
	if status := models.OrderStatus(label); status.Valid() {
		return status, true
	}
	return models.OrderStatusCreated, false
}

// RequestStatusFromLabel is OrderStatusFromLabel for custom requests; the fallback is pending.
func RequestStatusFromLabel(label string) (models.RequestStatus, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if status, ok := requestStatusLabels[label]; ok {
		return status, true
	}
	if status := models.RequestStatus(label); status.Valid() {
		return status, true
	}
	return models.RequestStatusPending, false
}
