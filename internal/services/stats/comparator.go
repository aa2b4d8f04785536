package stats

import (
	"math"
	"sort"

	"GridPulse/internal/domain/models"
	domsvc "GridPulse/internal/domain/service"
)

const (
	// DefaultBuckets is the PSI bin count when the caller does not override it.
	DefaultBuckets = 10

	// psiEpsilon substitutes for empty-bin shares to avoid log(0).
	psiEpsilon = 1e-4
)

// Comparator implements the distribution tests behind drift detection.
// All methods are pure: no state, no side effects, deterministic.
type Comparator struct{}

var _ domsvc.Comparator = (*Comparator)(nil)

func NewComparator() *Comparator { return &Comparator{} }

// TwoSampleDrift runs a two-sample Kolmogorov-Smirnov test. The statistic is
// the maximum absolute distance between the two empirical CDFs; the p-value
// is the asymptotic probability of seeing a distance at least that large when
// both samples come from the same distribution. Symmetric in its arguments.
func (c *Comparator) TwoSampleDrift(baseline, current []float64) (float64, float64, error) {
	if len(baseline) == 0 {
		return 0, 0, &models.InsufficientDataError{Op: "two_sample_drift", Needed: 1, Got: 0}
	}
	if len(current) == 0 {
		return 0, 0, &models.InsufficientDataError{Op: "two_sample_drift", Needed: 1, Got: 0}
	}

	s1 := append([]float64(nil), baseline...)
	s2 := append([]float64(nil), current...)
	sort.Float64s(s1)
	sort.Float64s(s2)

	n1, n2 := float64(len(s1)), float64(len(s2))

	i, j := 0, 0
	maxD := 0.0
	for i < len(s1) && j < len(s2) {
		diff := math.Abs(float64(i)/n1 - float64(j)/n2)
		if diff > maxD {
			maxD = diff
		}
		switch {
		case s1[i] < s2[j]:
			i++
		case s2[j] < s1[i]:
			j++
		default:
			i++
			j++
		}
	}
	for i < len(s1) {
		if diff := math.Abs(float64(i)/n1 - 1.0); diff > maxD {
			maxD = diff
		}
		i++
	}
	for j < len(s2) {
		if diff := math.Abs(1.0 - float64(j)/n2); diff > maxD {
			maxD = diff
		}
		j++
	}

	ne := n1 * n2 / (n1 + n2)
	return maxD, ksPValue(math.Sqrt(ne) * maxD), nil
}

// PopulationStabilityIndex bins both samples into equal-frequency intervals
// derived from the baseline quantiles and sums (cur - base) * ln(cur / base)
// over the bin shares. buckets <= 0 falls back to DefaultBuckets.
func (c *Comparator) PopulationStabilityIndex(baseline, current []float64, buckets int) (float64, error) {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}
	if len(baseline) < buckets {
		return 0, &models.InsufficientDataError{Op: "population_stability_index", Needed: buckets, Got: len(baseline)}
	}
	if len(current) < buckets {
		return 0, &models.InsufficientDataError{Op: "population_stability_index", Needed: buckets, Got: len(current)}
	}

	sorted := append([]float64(nil), baseline...)
	sort.Float64s(sorted)

	// Interior bin edges at baseline quantiles. First and last bins are
	// open-ended so every current value lands somewhere.
	n := len(sorted)
	edges := make([]float64, 0, buckets-1)
	for i := 1; i < buckets; i++ {
		idx := i * n / buckets
		if idx >= n {
			idx = n - 1
		}
		edges = append(edges, sorted[idx])
	}

	basePct := binShares(baseline, edges)
	curPct := binShares(current, edges)

	psi := 0.0
	for i := range basePct {
		b, cu := basePct[i], curPct[i]
		if b == 0 {
			b = psiEpsilon
		}
		if cu == 0 {
			cu = psiEpsilon
		}
		psi += (cu - b) * math.Log(cu/b)
	}
	return psi, nil
}

// binShares returns the fraction of values per bin. Bin i covers
// (edges[i-1], edges[i]]; the first bin is unbounded below, the last above.
func binShares(values []float64, edges []float64) []float64 {
	counts := make([]float64, len(edges)+1)
	for _, v := range values {
		counts[sort.SearchFloat64s(edges, v)]++
	}
	total := float64(len(values))
	shares := make([]float64, len(counts))
	for i, c := range counts {
		shares[i] = c / total
	}
	return shares
}

// ksPValue approximates the Kolmogorov distribution tail:
// P(D > x) = 2 * sum_{k>=1} (-1)^{k-1} * exp(-2 k^2 x^2).
func ksPValue(lambda float64) float64 {
	if lambda <= 0 {
		return 1.0
	}
	sum := 0.0
	for k := 1; k <= 10; k++ {
		sign := 1.0
		if k%2 == 0 {
			sign = -1.0
		}
		sum += sign * math.Exp(-2*float64(k*k)*lambda*lambda)
	}
	p := 2 * sum
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
