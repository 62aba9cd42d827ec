package entity

import (
	"github.com/shopspring/decimal"
)

type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "AVAILABLE"
	VehicleStatusRented      VehicleStatus = "RENTED"
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE"
	VehicleStatusDamaged     VehicleStatus = "DAMAGED"
	VehicleStatusReserved    VehicleStatus = "RESERVED"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusRented, VehicleStatusMaintenance,
		VehicleStatusDamaged, VehicleStatusReserved:
		return true
	}
	return false
}

type Vehicle struct {
	Base
	Make         string          `db:"make"`
	Model        string          `db:"model"`
	Year         int             `db:"year"`
	LicensePlate string          `db:"license_plate"`
	DailyRate    decimal.Decimal `db:"daily_rate"`
	Status       VehicleStatus   `db:"status"`
}
