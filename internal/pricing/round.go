package pricing

import "math"

// Round2 округляет до 2 знаков, половину от нуля: math.Round(v*100)/100.
// Так же округляет клиент, поэтому итоги сходятся до цента.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
