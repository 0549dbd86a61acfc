package domain

import "time"

// EnergyReading is one raw sample from a device, written by the external
// Data API sync. This service only reads them.
type EnergyReading struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	DeviceID  string    `json:"device_id" gorm:"index:idx_readings_device_time"`
	Timestamp time.Time `json:"timestamp" gorm:"index:idx_readings_device_time"`
	EnergyKWh float64   `json:"energy_kwh" gorm:"column:energy_kwh"`
	PowerW    float64   `json:"power_w"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyAggregate is one device's total energy for one calendar day.
// Days with no readings produce no aggregate at all, so a window is not
// necessarily contiguous; detectors handle gaps explicitly.
type DailyAggregate struct {
	Date        time.Time `json:"date"`
	TotalEnergy float64   `json:"total_energy"`
}
