package constants

// Order lifecycle statuses. These are the only values order logic branches
// on; vendor spellings are normalized at tracking ingestion.
const (
	OrderStatusNew            = "new"
	OrderStatusBooked         = "booked"
	OrderStatusPickup         = "pickup"
	OrderStatusInTransit      = "in_transit"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusNDR            = "ndr"
	OrderStatusRTO            = "rto"
	OrderStatusRTODelivered   = "rto_delivered"
	OrderStatusCancelled      = "cancelled"
)

// Shipping zones.
const (
	ZoneA = "A"
	ZoneB = "B"
	ZoneC = "C"
	ZoneD = "D"
	ZoneE = "E"
)

// Payment modes.
const (
	PaymentModeCOD     = "COD"
	PaymentModePrepaid = "prepaid"
)

// Courier selection policies.
const (
	SelectionPolicyManual   = "manual"
	SelectionPolicyCheapest = "cheapest"
	SelectionPolicyCustom   = "custom"
	SelectionPolicyRules    = "courier_assign_rules"
)

// Wallet transaction types.
const (
	WalletTxnTypeRecharge      = "recharge"
	WalletTxnTypeBookingCharge = "booking_charge"
	WalletTxnTypeBookingRefund = "booking_refund"
	WalletTxnTypeCODRealized   = "cod_realized"
	WalletTxnTypeRTOCharge     = "rto_charge"
	WalletTxnTypeAdminAdjust   = "admin_adjust"
)

// Canonical tracking event statuses.
const (
	TrackingStatusBooked          = "booked"
	TrackingStatusOutForPickup    = "out_for_pickup"
	TrackingStatusPickupCompleted = "pickup_completed"
	TrackingStatusInTransit       = "in_transit"
	TrackingStatusOutForDelivery  = "out_for_delivery"
	TrackingStatusDelivered       = "delivered"
	TrackingStatusNDR             = "ndr"
	TrackingStatusRTO             = "rto"
	TrackingStatusRTODelivered    = "rto_delivered"
	TrackingStatusCancelled       = "cancelled"
)

// NDR record statuses.
const (
	NdrStatusTakeAction = "take_action"
	NdrStatusReattempt  = "reattempt"
	NdrStatusDelivered  = "delivered"
	NdrStatusRTO        = "rto"
)

// COD remittance cycle statuses.
const (
	RemittanceStatusPending = "pending"
	RemittanceStatusPaid    = "paid"
)

// Courier assignment rule fields.
const (
	RuleFieldZone           = "zone"
	RuleFieldWeight         = "weight"
	RuleFieldPaymentMode    = "payment_mode"
	RuleFieldConsigneeState = "consignee_state"
)

// Courier assignment rule operators.
const (
	RuleOperatorEq      = "eq"
	RuleOperatorGt      = "gt"
	RuleOperatorLt      = "lt"
	RuleOperatorBetween = "between"
	RuleOperatorIn      = "in"
)

// Per-client configuration keys (client_configs table).
const (
	ClientConfigKeyOrderCharge        = "booking.order_charge"
	ClientConfigKeyNdrStaleHours      = "ndr.stale_after_hours"
	ClientConfigKeyCadenceDays        = "remittance.cadence_days"
	ClientConfigKeyRemittanceWeekdays = "remittance.weekdays"
	ClientConfigKeyPickupCode         = "pickup.location_code"
	ClientConfigKeyDefaultLength      = "dimensions.default_length_cm"
	ClientConfigKeyDefaultBreadth     = "dimensions.default_breadth_cm"
	ClientConfigKeyDefaultHeight      = "dimensions.default_height_cm"
)

// Queue names.
const (
	QueueDefault      = "default"
	QueueTracking     = "tracking"
	QueueNotification = "notification"
)

// Task names.
const (
	TaskTrackingSync = "tracking:sync"
	TaskNotification = "notification:dispatch"
)

// Notification event types.
const (
	NotifyEventBooked       = "order_booked"
	NotifyEventDelivered    = "order_delivered"
	NotifyEventNDR          = "order_ndr"
	NotifyEventRTO          = "order_rto"
	NotifyEventCancelled    = "order_cancelled"
	NotifyEventRTODelivered = "order_rto_delivered"
)

// MetroCities is the zone C metro set. Seeded alongside the pincode table;
// lookups lowercase the city before checking.
var MetroCities = map[string]bool{
	"delhi":     true,
	"new delhi": true,
	"mumbai":    true,
	"kolkata":   true,
	"chennai":   true,
	"bengaluru": true,
	"bangalore": true,
	"hyderabad": true,
	"ahmedabad": true,
	"pune":      true,
}

// SpecialZoneStates is the zone E special-handling state set.
var SpecialZoneStates = map[string]bool{
	"jammu and kashmir":           true,
	"jammu & kashmir":             true,
	"ladakh":                      true,
	"himachal pradesh":            true,
	"assam":                       true,
	"meghalaya":                   true,
	"manipur":                     true,
	"mizoram":                     true,
	"nagaland":                    true,
	"tripura":                     true,
	"arunachal pradesh":           true,
	"sikkim":                      true,
	"andaman and nicobar islands": true,
}

// TrackingDatetimeLayouts are the accepted event timestamp formats; the
// first layout that parses wins.
var TrackingDatetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"2006-01-02",
}
