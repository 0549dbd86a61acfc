package domain

import (
	"time"
)

type DeviceStatus string

const (
	DeviceStatusActive      DeviceStatus = "active"
	DeviceStatusInactive    DeviceStatus = "inactive"
	DeviceStatusMaintenance DeviceStatus = "maintenance"
	DeviceStatusRetired     DeviceStatus = "retired"
)

// Device is a monitored solar generation unit. Capacity is the rated output
// in watts; detection thresholds are all derived from it.
type Device struct {
	ID             string       `json:"id" gorm:"primaryKey"`
	Name           string       `json:"name"`
	Manufacturer   string       `json:"manufacturer"`
	Model          string       `json:"model"`
	SerialNumber   string       `json:"serial_number"`
	CapacityWatts  float64      `json:"capacity_watts"`
	Status         DeviceStatus `json:"status" gorm:"index"`
	SiteID         string       `json:"site_id"`
	Site           *Site        `json:"site,omitempty" gorm:"foreignKey:SiteID"`
	InstalledAt    time.Time    `json:"installed_at"`
	LastReportedAt time.Time    `json:"last_reported_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type Site struct {
	ID        string  `json:"id" gorm:"primaryKey"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
}
