package usecase

import (
	"fmt"

	"TradeSuite/internal/domain/models"
)

// Windows slices n bars into walk-forward windows of size bars advanced by step.
// Window k spans [k*step, k*step+size); its last step bars are the test region, so test
// regions are disjoint, contiguous and ordered.
func Windows(n, size, step int) ([]models.Window, error) {
	if size <= 0 || step <= 0 || step > size {
		return nil, fmt.Errorf("%w: window_size %d, step_size %d", models.ErrConfiguration, size, step)
	}
	if n < size {
		return nil, fmt.Errorf("%w: %d bars for window of %d", models.ErrInsufficientData, n, size)
	}

	count := (n-size)/step + 1
	out := make([]models.Window, 0, count)
	for k := 0; k < count; k++ {
		start := k * step
		end := start + size
		out = append(out, models.Window{
			Index:      k,
			TrainStart: start,
			TrainEnd:   end - step,
			TestStart:  end - step,
			TestEnd:    end,
		})
	}
	return out, nil
}
