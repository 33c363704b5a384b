package service

import (
	"strings"
	"time"

	"github.com/shipflow-next/internal/constants"
)

// trackingStatusAliases maps vendor status spellings (lowercased) to the
// canonical tracking vocabulary. Normalization happens once at ingestion;
// everything downstream branches on canonical values only.
var trackingStatusAliases = map[string]string{
	"booked":            constants.TrackingStatusBooked,
	"manifested":        constants.TrackingStatusBooked,
	"manifest uploaded": constants.TrackingStatusBooked,
	"shipment created":  constants.TrackingStatusBooked,
	"pickup scheduled":  constants.TrackingStatusBooked,

	"out_for_pickup":  constants.TrackingStatusOutForPickup,
	"out for pickup":  constants.TrackingStatusOutForPickup,
	"ofp":             constants.TrackingStatusOutForPickup,
	"pickup assigned": constants.TrackingStatusOutForPickup,

	"pickup_completed": constants.TrackingStatusPickupCompleted,
	"pickup completed": constants.TrackingStatusPickupCompleted,
	"picked up":        constants.TrackingStatusPickupCompleted,
	"picked":           constants.TrackingStatusPickupCompleted,
	"pickup done":      constants.TrackingStatusPickupCompleted,

	"in_transit":          constants.TrackingStatusInTransit,
	"in transit":          constants.TrackingStatusInTransit,
	"it":                  constants.TrackingStatusInTransit,
	"shipped":             constants.TrackingStatusInTransit,
	"dispatched":          constants.TrackingStatusInTransit,
	"reached destination": constants.TrackingStatusInTransit,

	"out_for_delivery": constants.TrackingStatusOutForDelivery,
	"out for delivery": constants.TrackingStatusOutForDelivery,
	"ofd":              constants.TrackingStatusOutForDelivery,
	"dispatched for delivery": constants.TrackingStatusOutForDelivery,

	"delivered":            constants.TrackingStatusDelivered,
	"dl":                   constants.TrackingStatusDelivered,
	"delivery confirmed":   constants.TrackingStatusDelivered,
	"shipment delivered":   constants.TrackingStatusDelivered,
	"successfully delivered": constants.TrackingStatusDelivered,

	"ndr":                    constants.TrackingStatusNDR,
	"non delivery report":    constants.TrackingStatusNDR,
	"undelivered":            constants.TrackingStatusNDR,
	"failed delivery":        constants.TrackingStatusNDR,
	"delivery failed":        constants.TrackingStatusNDR,
	"delivery attempted":     constants.TrackingStatusNDR,
	"consignee unavailable":  constants.TrackingStatusNDR,
	"customer not available": constants.TrackingStatusNDR,
	"address issue":          constants.TrackingStatusNDR,
	"refused":                constants.TrackingStatusNDR,
	"refused by customer":    constants.TrackingStatusNDR,

	"rto":           constants.TrackingStatusRTO,
	"rto initiated": constants.TrackingStatusRTO,
	"rto in transit": constants.TrackingStatusRTO,
	"return to origin": constants.TrackingStatusRTO,
	"returned":      constants.TrackingStatusRTO,

	"rto_delivered": constants.TrackingStatusRTODelivered,
	"rto delivered": constants.TrackingStatusRTODelivered,
	"rto dl":        constants.TrackingStatusRTODelivered,

	"cancelled": constants.TrackingStatusCancelled,
	"canceled":  constants.TrackingStatusCancelled,
}

// NormalizeTrackingStatus maps a vendor status to the canonical vocabulary.
// Unknown spellings come back empty so the caller can skip or log them.
func NormalizeTrackingStatus(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := trackingStatusAliases[key]; ok {
		return canonical
	}
	return ""
}

// trackingToOrderStatus maps a canonical tracking status to the order status
// it implies. Booked maps to pickup only once the shipment is moving; the
// booked order status itself is set by the booking orchestrator.
var trackingToOrderStatus = map[string]string{
	constants.TrackingStatusBooked:          constants.OrderStatusBooked,
	constants.TrackingStatusOutForPickup:    constants.OrderStatusPickup,
	constants.TrackingStatusPickupCompleted: constants.OrderStatusPickup,
	constants.TrackingStatusInTransit:       constants.OrderStatusInTransit,
	constants.TrackingStatusOutForDelivery:  constants.OrderStatusOutForDelivery,
	constants.TrackingStatusDelivered:       constants.OrderStatusDelivered,
	constants.TrackingStatusNDR:             constants.OrderStatusNDR,
	constants.TrackingStatusRTO:             constants.OrderStatusRTO,
	constants.TrackingStatusRTODelivered:    constants.OrderStatusRTODelivered,
	constants.TrackingStatusCancelled:       constants.OrderStatusCancelled,
}

// orderStatusRank orders statuses by lifecycle progress; a tracking update
// never moves an order backwards, and terminal states stay terminal.
var orderStatusRank = map[string]int{
	constants.OrderStatusNew:            0,
	constants.OrderStatusBooked:         1,
	constants.OrderStatusPickup:         2,
	constants.OrderStatusInTransit:      3,
	constants.OrderStatusOutForDelivery: 4,
	constants.OrderStatusNDR:            5,
	constants.OrderStatusDelivered:      6,
	constants.OrderStatusRTO:            6,
	constants.OrderStatusRTODelivered:   7,
	constants.OrderStatusCancelled:      7,
}

// orderStatusTerminal marks statuses no tracking event may leave, except the
// rto -> rto_delivered hop.
var orderStatusTerminal = map[string]bool{
	constants.OrderStatusDelivered:    true,
	constants.OrderStatusRTODelivered: true,
	constants.OrderStatusCancelled:    true,
}

func canTransitionOrderStatus(from, to string) bool {
	if from == to {
		return false
	}
	if from == constants.OrderStatusRTO {
		return to == constants.OrderStatusRTODelivered
	}
	if orderStatusTerminal[from] {
		return false
	}
	// NDR orders may recover forward (ofd, delivered) or roll to rto.
	if from == constants.OrderStatusNDR {
		return to == constants.OrderStatusOutForDelivery ||
			to == constants.OrderStatusDelivered ||
			to == constants.OrderStatusRTO ||
			to == constants.OrderStatusInTransit
	}
	return orderStatusRank[to] > orderStatusRank[from]
}

// ParseTrackingDatetime tries the accepted layouts in order; the first that
// parses wins.
func ParseTrackingDatetime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range constants.TrackingDatetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
