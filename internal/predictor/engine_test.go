package predictor_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/reservoirlens/internal/predictor"
	"github.com/sanspareilsmyn/reservoirlens/internal/stats"
)

func mustEngine(settings ...predictor.Settings) *predictor.Engine {
	e, err := predictor.NewEngine(settings, zap.NewNop())
	Expect(err).NotTo(HaveOccurred())
	return e
}

var _ = Describe("Engine", func() {
	It("soft-fails a windowed figure until the window is full", func() {
		e := mustEngine(
			predictor.Settings{ID: predictor.Activation},
			predictor.Settings{ID: predictor.ActivationStat, Figure: stats.StdDev, Window: 3},
		)
		Expect(e.RequiredHistoryLength()).To(Equal(3))

		e.Update(1, 0, false)
		e.Update(2, 0, false)
		Expect(e.Ready()).To(BeFalse())
		Expect(e.ComputePredictors()).To(Equal([]float64{2, 0}))

		e.Update(3, 0, false)
		Expect(e.Ready()).To(BeTrue())
		out := e.ComputePredictors()
		Expect(out).To(HaveLen(2))
		Expect(out[0]).To(Equal(3.0))
		Expect(out[1]).To(BeNumerically("~", math.Sqrt(2.0/3.0), 1e-12))
	})

	It("keeps output order aligned with the published ids", func() {
		e := mustEngine(
			predictor.Settings{ID: predictor.FiringCount, Window: 4},
			predictor.Settings{ID: predictor.Activation},
			predictor.Settings{ID: predictor.PoweredActivation, Exponent: 2},
		)
		Expect(e.IDs()).To(Equal([]predictor.ID{predictor.FiringCount, predictor.Activation, predictor.PoweredActivation}))
		Expect(e.Labels()).To(HaveLen(3))

		e.Update(-3, 0.1, true)
		Expect(e.ComputePredictors()).To(Equal([]float64{1, -3, 9}))
	})

	It("shares one resource sized by the largest requirement", func() {
		e := mustEngine(
			predictor.Settings{ID: predictor.ActivationStat, Figure: stats.Max, Window: 16},
			predictor.Settings{ID: predictor.ActivationRescaledRange, Window: 64, Series: predictor.SeriesDelta},
			predictor.Settings{ID: predictor.FiringCount, Window: 8},
			predictor.Settings{ID: predictor.FiringTrace, Strength: 0.2, Window: 200},
		)
		res := e.Resources()
		Expect(res.DataWindow.Capacity()).To(Equal(65))
		Expect(res.BitWindow.Capacity()).To(Equal(200))
		Expect(res.ActivationStat).To(BeNil())
		Expect(res.DeltaStat).To(BeNil())
		Expect(e.RequiredHistoryLength()).To(Equal(200))
	})

	It("allocates nothing shared when no unit needs it", func() {
		e := mustEngine(predictor.Settings{ID: predictor.Activation})
		res := e.Resources()
		Expect(res.DataWindow).To(BeNil())
		Expect(res.BitWindow).To(BeNil())
		Expect(res.ActivationStat).To(BeNil())
		Expect(res.DeltaStat).To(BeNil())
		Expect(e.RequiredHistoryLength()).To(Equal(0))
		Expect(e.Ready()).To(BeTrue())
	})

	It("rejects an empty or invalid configuration", func() {
		_, err := predictor.NewEngine(nil, zap.NewNop())
		Expect(err).To(MatchError(predictor.ErrNoPredictors))

		_, err = predictor.NewEngine([]predictor.Settings{
			{ID: predictor.Activation},
			{ID: predictor.FiringBinPattern, Window: 128},
		}, nil)
		Expect(err).To(MatchError(predictor.ErrInvalidWindowSize))
	})

	It("feeds continuous activation and delta statistics", func() {
		e := mustEngine(
			predictor.Settings{ID: predictor.ActivationStat, Figure: stats.ArithAvg},
			predictor.Settings{ID: predictor.ActivationStat, Figure: stats.Sum, Series: predictor.SeriesDelta},
		)
		for _, v := range []float64{1, 4, 2, 8} {
			e.Update(v, 0, false)
		}
		res := e.Resources()
		Expect(res.DeltaStat.Count()).To(Equal(3))
		Expect(e.ComputePredictors()).To(Equal([]float64{3.75, 7}))
	})

	It("computes windowed delta figures from the shared activation window", func() {
		e := mustEngine(predictor.Settings{ID: predictor.ActivationStat, Figure: stats.Max, Series: predictor.SeriesDelta, Window: 2})
		e.Update(1, 0, false)
		e.Update(5, 0, false)
		Expect(e.ComputePredictors()).To(Equal([]float64{0}))
		e.Update(6, 0, false)
		Expect(e.ComputePredictors()).To(Equal([]float64{4}))
		e.Update(10, 0, false)
		Expect(e.ComputePredictors()).To(Equal([]float64{4}))
		e.Update(10, 0, false)
		Expect(e.ComputePredictors()).To(Equal([]float64{4}))
		e.Update(10, 0, false)
		Expect(e.ComputePredictors()).To(Equal([]float64{0}))
	})

	It("keeps sign on request when powering", func() {
		signed := mustEngine(predictor.Settings{ID: predictor.PoweredActivation, Exponent: 3, KeepSign: true})
		signed.Update(-2, 0, false)
		Expect(signed.ComputePredictors()).To(Equal([]float64{-8}))

		unsigned := mustEngine(predictor.Settings{ID: predictor.PoweredActivation, Exponent: 0.5})
		unsigned.Update(-4, 0, false)
		Expect(unsigned.ComputePredictors()).To(Equal([]float64{2}))
	})

	It("weights recent samples more in linear averages", func() {
		e := mustEngine(
			predictor.Settings{ID: predictor.ActivationLinWAvg},
			predictor.Settings{ID: predictor.ActivationLinWAvg, Window: 3},
		)
		for _, v := range []float64{9, 1, 2, 3} {
			e.Update(v, 0, false)
		}
		out := e.ComputePredictors()
		// weights 1..4 over 9,1,2,3
		Expect(out[0]).To(BeNumerically("~", (9+2+6+12)/10.0, 1e-12))
		// weights 1..3 over 1,2,3
		Expect(out[1]).To(BeNumerically("~", (1+4+9)/6.0, 1e-12))
	})

	It("computes exponentially weighted averages both ways", func() {
		e := mustEngine(
			predictor.Settings{ID: predictor.ActivationExpWAvg, Strength: 0.5},
			predictor.Settings{ID: predictor.ActivationExpWAvg, Strength: 0.5, Window: 3},
		)
		e.Update(4, 0, false)
		e.Update(8, 0, false)
		Expect(e.ComputePredictors()[1]).To(Equal(0.0))
		e.Update(2, 0, false)

		out := e.ComputePredictors()
		expected := (2*1 + 8*0.5 + 4*0.25) / 1.75
		Expect(out[0]).To(BeNumerically("~", expected, 1e-12))
		Expect(out[1]).To(BeNumerically("~", expected, 1e-12))
	})

	It("tracks firing traces incrementally and by recomputation", func() {
		const strength = 0.25
		spikes := []bool{true, false, true, true, false, true}
		e := mustEngine(
			predictor.Settings{ID: predictor.FiringTrace, Strength: strength},
			predictor.Settings{ID: predictor.FiringTrace, Strength: strength, Window: len(spikes)},
		)
		trace := 0.0
		for i, s := range spikes {
			e.Update(0, 0, s)
			v := 0.0
			if s {
				v = 1
			}
			trace = trace*(1-strength) + v
			out := e.ComputePredictors()
			Expect(out[0]).To(BeNumerically("~", trace, 1e-12))
			if i < len(spikes)-1 {
				Expect(out[1]).To(Equal(0.0))
			}
		}
		Expect(e.ComputePredictors()[1]).To(BeNumerically("~", trace, 1e-12))
	})

	It("reports firing counts and bit patterns", func() {
		e := mustEngine(
			predictor.Settings{ID: predictor.FiringCount, Window: 3},
			predictor.Settings{ID: predictor.FiringBinPattern, Window: 4},
		)
		for _, s := range []bool{true, true, false, true, false} {
			e.Update(0, 0, s)
		}
		// newest first: 0,1,0,1,1
		Expect(e.ComputePredictors()).To(Equal([]float64{1, 0b1010}))
	})

	It("reports 0 for a bit pattern until its history is available", func() {
		e := mustEngine(predictor.Settings{ID: predictor.FiringBinPattern, Window: 3})
		e.Update(0, 0, true)
		e.Update(0, 0, true)
		Expect(e.ComputePredictors()).To(Equal([]float64{0}))
		e.Update(0, 0, false)
		Expect(e.ComputePredictors()).To(Equal([]float64{0b110}))
	})

	It("encodes the widest bit pattern exactly", func() {
		const width = predictor.MaxPatternWindow
		e := mustEngine(predictor.Settings{ID: predictor.FiringBinPattern, Window: width})
		for i := 0; i < width; i++ {
			e.Update(0, 0, i == 0 || i == width-1)
		}
		// oldest bit lands at position width-1, newest at 0
		Expect(e.ComputePredictors()).To(Equal([]float64{float64(uint64(1)<<(width-1) | 1)}))
	})

	It("computes rescaled range once filled", func() {
		e := mustEngine(predictor.Settings{ID: predictor.ActivationRescaledRange, Window: 4})
		for _, v := range []float64{1, 3, 2} {
			e.Update(v, 0, false)
		}
		Expect(e.ComputePredictors()).To(Equal([]float64{0}))
		e.Update(4, 0, false)
		Expect(e.ComputePredictors()[0]).To(BeNumerically("~", 1.5/math.Sqrt(1.25), 1e-12))
	})

	It("returns to the initial state on reset", func() {
		settings := []predictor.Settings{
			{ID: predictor.ActivationLinWAvg},
			{ID: predictor.FiringTrace, Strength: 0.3},
			{ID: predictor.ActivationStat, Figure: stats.Variance, Window: 2},
			{ID: predictor.ActivationStat, Figure: stats.StdDev},
		}
		e := mustEngine(settings...)
		for i := 0; i < 10; i++ {
			e.Update(float64(i), 0, i%2 == 0)
		}
		e.Reset()
		Expect(e.Steps()).To(Equal(0))
		e.Update(5, 0, true)
		e.Update(7, 0, false)

		fresh := mustEngine(settings...)
		fresh.Update(5, 0, true)
		fresh.Update(7, 0, false)
		Expect(e.ComputePredictors()).To(Equal(fresh.ComputePredictors()))
	})

	It("reuses a caller buffer", func() {
		e := mustEngine(predictor.Settings{ID: predictor.Activation})
		e.Update(2, 0, false)
		buf := make([]float64, 0, 4)
		out := e.ComputePredictorsInto(buf)
		Expect(out).To(Equal([]float64{2}))
		Expect(cap(out)).To(Equal(4))
	})
})

var _ = Describe("Unit", func() {
	It("moves from uninitialized to accumulating", func() {
		u, err := predictor.NewUnit(predictor.Settings{ID: predictor.Activation})
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Accumulating()).To(BeFalse())
		u.Update(1, 0, false)
		Expect(u.Accumulating()).To(BeTrue())
		u.Reset()
		Expect(u.Accumulating()).To(BeFalse())
	})
})
