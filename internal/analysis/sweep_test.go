package analysis_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/odelab/internal/analysis"
	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/integrators"
)

func rossler(t float64, s dynamo.State, p dynamo.Params) dynamo.State {
	return dynamo.State{-s[1] - s[2], s[0] + p["a"]*s[1], p["b"] + s[2]*(s[0]-p["c"])}
}

// forcedDecay settles to x = p["u"] without oscillating.
func forcedDecay(t float64, s dynamo.State, p dynamo.Params) dynamo.State {
	return dynamo.State{p["u"] - s[0]}
}

var _ = Describe("SweepParameter", func() {
	var (
		ctx      context.Context
		settings dynamo.SimulationParams
		fixed    dynamo.Params
	)

	BeforeEach(func() {
		ctx = context.Background()
		settings = dynamo.SimulationParams{
			InitialConditions: dynamo.State{1, 1, 1},
			TEnd:              400,
			StepSize:          0.01,
		}
		fixed = dynamo.Params{"a": 0.2, "b": 0.2, "c": 5.7}
	})

	Describe("sweep values", func() {
		It("spans min to max inclusively", func() {
			spec := analysis.SweepSpec{Param: "c", Min: 1, Max: 2, Steps: 4}
			Expect(spec.Values()).To(Equal([]float64{1, 1.25, 1.5, 1.75, 2}))
		})

		It("evaluates every value from its index", func() {
			lo, hi, steps := 0.1, 0.7, 7
			spec := analysis.SweepSpec{Param: "c", Min: lo, Max: hi, Steps: steps}
			values := spec.Values()
			Expect(values).To(HaveLen(steps + 1))
			for i, v := range values {
				Expect(v).To(Equal(lo + float64(i)*(hi-lo)/float64(steps)))
			}
		})

		It("uses a single value when steps is zero", func() {
			spec := analysis.SweepSpec{Param: "c", Min: 3, Max: 7}
			Expect(spec.Values()).To(Equal([]float64{3}))
		})
	})

	Describe("the Rössler period-doubling cascade", func() {
		It("shows more distinct maxima past each doubling", func() {
			spec := analysis.SweepSpec{Param: "c", Min: 2.5, Max: 4.0, Steps: 3, Observe: 0, Transient: 200}

			points, err := analysis.SweepParameter(ctx, rossler, fixed, spec, settings, analysis.WithWorkers(4))
			Expect(err).NotTo(HaveOccurred())

			groups := analysis.GroupByParam(points)
			Expect(groups).To(HaveLen(4))

			periods := make([]int, len(groups))
			for i, g := range groups {
				periods[i] = analysis.CountDistinct(g.Values, 0.05)
			}
			Expect(periods[0]).To(Equal(1))
			Expect(periods[2]).To(Equal(2))
			Expect(periods[3]).To(Equal(4))
			for i := 1; i < len(periods); i++ {
				Expect(periods[i]).To(BeNumerically(">=", periods[i-1]))
			}
		})

		It("leaves the fixed parameters untouched", func() {
			spec := analysis.SweepSpec{Param: "c", Min: 2.5, Max: 3.0, Steps: 1, Transient: 50}
			settings.TEnd = 100

			_, err := analysis.SweepParameter(ctx, rossler, fixed, spec, settings)
			Expect(err).NotTo(HaveOccurred())
			Expect(fixed["c"]).To(Equal(5.7))
		})
	})

	It("returns no points for a fixed-point regime", func() {
		settings.InitialConditions = dynamo.State{0}
		settings.TEnd = 20
		spec := analysis.SweepSpec{Param: "u", Min: -1, Max: 1, Steps: 4, Transient: 5}

		points, err := analysis.SweepParameter(ctx, forcedDecay, dynamo.Params{}, spec, settings)
		Expect(err).NotTo(HaveOccurred())
		Expect(points).To(BeEmpty())
	})

	It("orders points by parameter regardless of worker count", func() {
		spec := analysis.SweepSpec{Param: "c", Min: 2.5, Max: 4.0, Steps: 5, Transient: 50}
		settings.TEnd = 150

		serial, err := analysis.SweepParameter(ctx, rossler, fixed, spec, settings, analysis.WithWorkers(1))
		Expect(err).NotTo(HaveOccurred())
		parallel, err := analysis.SweepParameter(ctx, rossler, fixed, spec, settings, analysis.WithWorkers(6))
		Expect(err).NotTo(HaveOccurred())

		Expect(parallel).To(Equal(serial))
		for i := 1; i < len(serial); i++ {
			Expect(serial[i].Param).To(BeNumerically(">=", serial[i-1].Param))
		}
	})

	It("reports progress for every point", func() {
		spec := analysis.SweepSpec{Param: "c", Min: 2.5, Max: 3.0, Steps: 4}
		settings.TEnd = 10

		var mu sync.Mutex
		var seen []int
		total := 0
		_, err := analysis.SweepParameter(ctx, rossler, fixed, spec, settings,
			analysis.WithWorkers(2),
			analysis.WithStepper(func() dynamo.Stepper { return integrators.NewRK4() }),
			analysis.WithProgress(func(done, n int) {
				mu.Lock()
				defer mu.Unlock()
				seen = append(seen, done)
				total = n
			}))
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(5))
		Expect(seen).To(ConsistOf(1, 2, 3, 4, 5))
	})

	DescribeTable("rejects invalid sweeps",
		func(spec analysis.SweepSpec) {
			_, err := analysis.SweepParameter(ctx, rossler, fixed, spec, settings)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue(), "got %v", err)
		},
		Entry("empty name", analysis.SweepSpec{Min: 0, Max: 1, Steps: 2}),
		Entry("negative steps", analysis.SweepSpec{Param: "c", Min: 0, Max: 1, Steps: -1}),
		Entry("reversed range", analysis.SweepSpec{Param: "c", Min: 2, Max: 1, Steps: 2}),
		Entry("observed index out of range", analysis.SweepSpec{Param: "c", Min: 0, Max: 1, Steps: 2, Observe: 3}),
		Entry("negative transient", analysis.SweepSpec{Param: "c", Min: 0, Max: 1, Steps: 2, Transient: -1}),
	)

	It("rejects invalid simulation settings", func() {
		settings.StepSize = 0
		spec := analysis.SweepSpec{Param: "c", Min: 2.5, Max: 3, Steps: 1}
		_, err := analysis.SweepParameter(ctx, rossler, fixed, spec, settings)
		Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
	})

	It("aborts the sweep when one point fails", func() {
		fragile := func(t float64, s dynamo.State, p dynamo.Params) dynamo.State {
			if p["c"] > 3.5 {
				panic("unsupported regime")
			}
			return rossler(t, s, p)
		}
		spec := analysis.SweepSpec{Param: "c", Min: 2.5, Max: 4.0, Steps: 3}
		settings.TEnd = 10

		points, err := analysis.SweepParameter(ctx, fragile, fixed, spec, settings)
		Expect(points).To(BeNil())

		var sweepErr *analysis.SweepError
		Expect(errors.As(err, &sweepErr)).To(BeTrue())
		Expect(sweepErr.Index).To(Equal(3))
		Expect(sweepErr.Value).To(Equal(4.0))
		Expect(errors.Is(err, dynamo.ErrEvaluation)).To(BeTrue())
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		spec := analysis.SweepSpec{Param: "c", Min: 2.5, Max: 4.0, Steps: 10}

		points, err := analysis.SweepParameter(cctx, rossler, fixed, spec, settings)
		Expect(points).To(BeNil())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})
