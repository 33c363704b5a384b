package models

// PincodeZone maps a pincode to its city and state. Static reference data
// loaded by the seed command.
type PincodeZone struct {
	Pincode string `gorm:"primarykey" json:"pincode"`
	City    string `gorm:"not null" json:"city"`
	State   string `gorm:"not null" json:"state"`
}

// TableName sets the table name.
func (PincodeZone) TableName() string {
	return "pincode_zones"
}
