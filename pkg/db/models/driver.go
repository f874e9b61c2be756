package models

import (
	"time"

	"github.com/harvestlink/harvestlink-backend/pkg/enums"
)

// Driver is the delivery-driver registry surface the scheduler reads and
// flips between available/busy.
type Driver struct {
	ID                 int64                    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name               string                   `gorm:"column:name;not null" json:"name"`
	VehicleType        string                   `gorm:"column:vehicle_type;not null" json:"vehicleType"`
	Capacity           int                      `gorm:"column:capacity;not null" json:"capacity"`
	AvailabilityStatus enums.DriverAvailability `gorm:"column:availability_status;not null;default:'available'" json:"availabilityStatus"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
