package igrill

// FahrenheitToCelsius does not round.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}
