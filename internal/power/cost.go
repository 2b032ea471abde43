package power

// Cost converts a power draw in watts into currency for the given duration
// at the given energy price: watts/1000 * price * hours.
func Cost(powerWatts, pricePerKWh, durationHours float64) float64 {
	return (powerWatts / 1000) * pricePerKWh * durationHours
}

// EnergyKWh is the energy in kilowatt-hours drawn at powerWatts over the
// given duration.
func EnergyKWh(powerWatts, durationHours float64) float64 {
	return (powerWatts / 1000) * durationHours
}
