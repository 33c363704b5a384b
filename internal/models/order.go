package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is one shipment order. Owned exclusively by the creating client and
// mutated only through the booking orchestrator and tracking reconciler.
type Order struct {
	ID                 uint   `gorm:"primarykey" json:"id"`
	ClientID           uint   `gorm:"uniqueIndex:idx_client_order;not null" json:"client_id"`
	OrderID            string `gorm:"uniqueIndex:idx_client_order;not null" json:"order_id"` // client-facing order number
	MarketplaceOrderID string `gorm:"index" json:"marketplace_order_id,omitempty"`

	// Consignee address.
	ConsigneeName    string `gorm:"not null" json:"consignee_name"`
	ConsigneePhone   string `json:"consignee_phone"`
	ConsigneeEmail   string `json:"consignee_email,omitempty"`
	ConsigneeAddress string `gorm:"type:text" json:"consignee_address"`
	ConsigneeCity    string `json:"consignee_city"`
	ConsigneeState   string `json:"consignee_state"`
	ConsigneePincode string `gorm:"index" json:"consignee_pincode"`
	PickupPincode    string `json:"pickup_pincode"`

	// Weights in kg. ApplicableWeight = max(weight, volumetric), 3 decimals.
	Weight           Weight `gorm:"type:decimal(10,3);not null;default:0" json:"weight"`
	VolumetricWeight Weight `gorm:"type:decimal(10,3);not null;default:0" json:"volumetric_weight"`
	ApplicableWeight Weight `gorm:"type:decimal(10,3);not null;default:0" json:"applicable_weight"`

	Zone        string `gorm:"type:varchar(1);index" json:"zone"`
	PaymentMode string `gorm:"not null" json:"payment_mode"` // COD / prepaid
	TotalAmount Money  `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`

	Status    string `gorm:"index;not null;default:new" json:"status"`
	SubStatus string `json:"sub_status,omitempty"`

	// Courier assignment, set once on successful booking.
	AWBNumber      string `gorm:"index" json:"awb_number,omitempty"` // unique once assigned, enforced on write
	PartnerID      *uint  `gorm:"index" json:"partner_id,omitempty"`
	CourierPartner string `json:"courier_partner,omitempty"` // partner slug
	ContractID     *uint  `gorm:"index" json:"contract_id,omitempty"`

	// Financials.
	ForwardFreight       Money  `gorm:"type:decimal(20,2);not null;default:0" json:"forward_freight"`
	ForwardCODCharge     Money  `gorm:"type:decimal(20,2);not null;default:0" json:"forward_cod_charge"`
	ForwardTax           Money  `gorm:"type:decimal(20,2);not null;default:0" json:"forward_tax"`
	RTOFreight           *Money `gorm:"type:decimal(20,2)" json:"rto_freight,omitempty"`
	RTOTax               *Money `gorm:"type:decimal(20,2)" json:"rto_tax,omitempty"`
	CODRemittanceCycleID *uint  `gorm:"index" json:"cod_remittance_cycle_id,omitempty"` // set exactly once

	ShipmentBookingError string `gorm:"type:text" json:"shipment_booking_error,omitempty"`

	TrackingInfo  TrackingEvents `gorm:"type:json" json:"tracking_info,omitempty"`
	ActionHistory ActionHistory  `gorm:"type:json" json:"action_history,omitempty"`
	OrderTags     StringArray    `gorm:"type:json" json:"order_tags,omitempty"`
	CancelCount   int            `gorm:"not null;default:0" json:"cancel_count"`

	// Milestones, each set at most once by the reconciler.
	BookingDate          *time.Time `json:"booking_date,omitempty"`
	FirstOFPDate         *time.Time `json:"first_ofp_date,omitempty"`
	PickupCompletionDate *time.Time `json:"pickup_completion_date,omitempty"`
	FirstOFDDate         *time.Time `json:"first_ofd_date,omitempty"`
	DeliveredDate        *time.Time `json:"delivered_date,omitempty"`
	RTOInitiatedDate     *time.Time `json:"rto_initiated_date,omitempty"`
	RTODeliveredDate     *time.Time `json:"rto_delivered_date,omitempty"`
	LastUpdateDate       *time.Time `json:"last_update_date,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Order) TableName() string {
	return "orders"
}
