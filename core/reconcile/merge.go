package reconcile

import (
	"slices"

	"measurement-extractor/core/utils"
)

// Merge collapses a sequence of observations under policy.
//
// Non-empty units must agree or a DIFFERENT_UNITS conflict is returned. Values that are
// empty or not numeric are left out of the computation; if none remain the merged value
// is empty. The merged unit is the agreed unit, or empty when no observation carried one.
func Merge(obs []Observation, policy Policy) (Observation, *Conflict) {
	unit := ""
	for _, o := range obs {
		if o.Unit == "" {
			continue
		}
		if unit == "" {
			unit = o.Unit
			continue
		}
		if o.Unit != unit {
			return Observation{}, &Conflict{Reason: ReasonDifferentUnits, Observations: obs}
		}
	}

	values := make([]float64, 0, len(obs))
	for _, o := range obs {
		if v, ok := utils.ToFloat(o.Value); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Observation{Unit: unit}, nil
	}

	var merged float64
	switch policy {
	case PolicySame:
		for _, v := range values[1:] {
			if v != values[0] {
				return Observation{}, &Conflict{Reason: ReasonPolicyViolation, Observations: obs}
			}
		}
		merged = values[0]
	case PolicyMean:
		merged = mean(values)
	case PolicyMedian:
		merged = median(values)
	case PolicyMin:
		merged = slices.Min(values)
	case PolicyMax:
		merged = slices.Max(values)
	default:
		merged = values[0]
	}

	return Observation{Value: utils.FormatFloat(merged), Unit: unit}, nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
