package calculation

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"lpgo/internal/domain"
)

// Sampling modes for the stochastic projector.
const (
	SamplePerTrial = "per-trial" // one sampled return per bucket, constant over the run
	SamplePerYear  = "per-year"  // an independently sampled return per bucket per year
)

// Sampled-return clip bounds. The education fund is sampled at half the
// standard deviation with tighter bounds, reflecting its shorter horizon.
var (
	returnClipLow  = decimal.NewFromFloat(-0.5)
	returnClipHigh = decimal.NewFromFloat(1.5)
	eduClipLow     = decimal.NewFromFloat(-0.3)
	eduClipHigh    = decimal.NewFromFloat(0.5)
	eduStdFactor   = decimal.NewFromFloat(0.5)
)

// MonteCarloConfig parameterizes a stochastic projection run.
type MonteCarloConfig struct {
	Trials    int
	ReturnStd decimal.Decimal
	Seed      int64
	Mode      string // SamplePerTrial or SamplePerYear
	Workers   int    // 0 selects NumCPU

	// ActualCashOffset is added to every year-end total from ActualAge
	// onward, aligning the projection with observed actuals.
	ActualCashOffset decimal.Decimal
	ActualAge        int
}

// PercentileBand is one percentile's trajectory across the simulated ages.
type PercentileBand struct {
	Percentile int               `json:"percentile"`
	Values     []decimal.Decimal `json:"values"`
}

// MonteCarloResult is the percentile summary of a stochastic projection.
type MonteCarloResult struct {
	Ages             []int                   `json:"ages"`
	Bands            []PercentileBand        `json:"bands"`
	Mean             []decimal.Decimal       `json:"mean"`
	FinalPercentiles map[int]decimal.Decimal `json:"final_percentiles"`
	FinalMean        decimal.Decimal         `json:"final_mean"`
	Trials           int                     `json:"trials"`
	ReturnStd        decimal.Decimal         `json:"return_std"`
	Mode             string                  `json:"mode"`
}

var reportedPercentiles = []int{5, 25, 50, 75, 95}

// MonteCarloEngine wraps the deterministic engine as a black box, varying
// only the non-equity buckets' return assumptions per trial. Every trial
// runs against its own parameter clone seeded deterministically from the
// base seed, so results are reproducible for a given seed and trial count.
type MonteCarloEngine struct {
	engine *Engine
	params *domain.SimulationParameters
	config MonteCarloConfig
}

// NewMonteCarloEngine creates a stochastic projector over the parameters.
func NewMonteCarloEngine(engine *Engine, params *domain.SimulationParameters, config MonteCarloConfig) *MonteCarloEngine {
	if config.Trials <= 0 {
		config.Trials = 300
	}
	if config.Mode == "" {
		config.Mode = SamplePerTrial
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	return &MonteCarloEngine{engine: engine, params: params, config: config}
}

// Run executes every trial and folds the per-age year-end totals into
// percentile bands. The context is checked between trials on each worker.
func (mce *MonteCarloEngine) Run(ctx context.Context) (*MonteCarloResult, error) {
	if mce.config.Mode != SamplePerTrial && mce.config.Mode != SamplePerYear {
		return nil, fmt.Errorf("unknown sampling mode %q", mce.config.Mode)
	}
	years := mce.params.Years()
	trials := mce.config.Trials

	results := make([][]decimal.Decimal, trials)
	errs := make([]error, trials)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < mce.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range jobs {
				if err := ctx.Err(); err != nil {
					errs[trial] = err
					continue
				}
				row, err := mce.runTrial(ctx, trial)
				results[trial] = row
				errs[trial] = err
			}
		}()
	}
	for trial := 0; trial < trials; trial++ {
		jobs <- trial
	}
	close(jobs)
	wg.Wait()

	for trial, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}
	}

	return mce.summarize(results, years), nil
}

// runTrial clones the parameters, substitutes sampled returns, and runs the
// deterministic engine. The trial's random source derives from the base
// seed plus the trial index, keeping trials independent of worker
// scheduling.
func (mce *MonteCarloEngine) runTrial(ctx context.Context, trial int) ([]decimal.Decimal, error) {
	rng := rand.New(rand.NewSource(mce.config.Seed + int64(trial)))
	params := mce.params.Clone()

	switch mce.config.Mode {
	case SamplePerTrial:
		for i, def := range params.Investment.Buckets {
			if def.Equity {
				continue
			}
			params.Investment.Buckets[i].ExpectedReturn = mce.sampleReturn(rng, def)
		}
	case SamplePerYear:
		years := params.Years()
		schedule := make(map[string][]decimal.Decimal, len(params.Investment.Buckets))
		for _, def := range params.Investment.Buckets {
			if def.Equity {
				continue
			}
			sampled := make([]decimal.Decimal, years)
			for y := 0; y < years; y++ {
				sampled[y] = mce.sampleReturn(rng, def)
			}
			schedule[def.Name] = sampled
		}
		params.ReturnSchedule = schedule
	}

	result, err := mce.engine.RunProjection(ctx, params)
	if err != nil {
		return nil, err
	}

	row := make([]decimal.Decimal, len(result.Yearly))
	for i, y := range result.Yearly {
		total := y.AssetsEnd
		if mce.config.ActualAge > 0 && y.Age >= mce.config.ActualAge {
			total = total.Add(mce.config.ActualCashOffset)
		}
		row[i] = total
	}
	return row, nil
}

// sampleReturn draws one clipped normal return around the bucket's expected
// return. The education fund uses the damped deviation and tighter bounds.
func (mce *MonteCarloEngine) sampleReturn(rng *rand.Rand, def domain.BucketDef) decimal.Decimal {
	std := mce.config.ReturnStd
	low, high := returnClipLow, returnClipHigh
	if def.Name == domain.BucketEducationFund {
		std = std.Mul(eduStdFactor)
		low, high = eduClipLow, eduClipHigh
	}
	sample := def.ExpectedReturn.Add(decimal.NewFromFloat(rng.NormFloat64()).Mul(std))
	if sample.LessThan(low) {
		return low
	}
	if sample.GreaterThan(high) {
		return high
	}
	return sample
}

func (mce *MonteCarloEngine) summarize(results [][]decimal.Decimal, years int) *MonteCarloResult {
	out := &MonteCarloResult{
		Ages:             make([]int, years),
		Mean:             make([]decimal.Decimal, years),
		FinalPercentiles: make(map[int]decimal.Decimal, len(reportedPercentiles)),
		Trials:           mce.config.Trials,
		ReturnStd:        mce.config.ReturnStd,
		Mode:             mce.config.Mode,
	}
	for i := range out.Ages {
		out.Ages[i] = mce.params.BasicInfo.StartAge + i
	}

	out.Bands = make([]PercentileBand, len(reportedPercentiles))
	for i, p := range reportedPercentiles {
		out.Bands[i] = PercentileBand{Percentile: p, Values: make([]decimal.Decimal, years)}
	}

	column := make([]decimal.Decimal, len(results))
	trialCount := decimal.NewFromInt(int64(len(results)))
	for year := 0; year < years; year++ {
		sum := decimal.Zero
		for trial, row := range results {
			column[trial] = row[year]
			sum = sum.Add(row[year])
		}
		sortDecimals(column)
		for i, p := range reportedPercentiles {
			out.Bands[i].Values[year] = percentileOf(column, float64(p)/100)
		}
		out.Mean[year] = sum.Div(trialCount)
	}

	for i, p := range reportedPercentiles {
		out.FinalPercentiles[p] = out.Bands[i].Values[years-1]
	}
	out.FinalMean = out.Mean[years-1]
	return out
}

func sortDecimals(values []decimal.Decimal) {
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })
}

// percentileOf returns the linearly interpolated percentile of a sorted
// slice, fraction in [0,1].
func percentileOf(sorted []decimal.Decimal, fraction float64) decimal.Decimal {
	if len(sorted) == 0 {
		return decimal.Zero
	}
	index := fraction * float64(len(sorted)-1)
	lower := int(index)
	if index == float64(lower) || lower+1 >= len(sorted) {
		return sorted[lower]
	}
	weight := decimal.NewFromFloat(index - float64(lower))
	return sorted[lower].Add(sorted[lower+1].Sub(sorted[lower]).Mul(weight))
}
