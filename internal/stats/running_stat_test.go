package stats_test

import (
	"math"
	"math/rand"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sanspareilsmyn/reservoirlens/internal/stats"
)

var allFigures = []stats.Figure{
	stats.Sum, stats.NegSum, stats.PosSum, stats.SumOfSquares, stats.Min, stats.Max,
	stats.Mid, stats.Span, stats.ArithAvg, stats.MeanSquare, stats.RootMeanSquare,
	stats.Variance, stats.StdDev, stats.SpanDev,
}

var _ = Describe("RunningStat", func() {
	It("reports the basic figures of 1..5", func() {
		s := stats.NewRunningStat(1, 2, 3, 4, 5)

		Expect(s.Count()).To(Equal(5))
		Expect(s.Get(stats.ArithAvg)).To(Equal(3.0))
		Expect(s.Get(stats.Min)).To(Equal(1.0))
		Expect(s.Get(stats.Max)).To(Equal(5.0))
		Expect(s.Get(stats.Variance)).To(Equal(2.0))
		Expect(s.Get(stats.StdDev)).To(Equal(math.Sqrt(2)))
		Expect(s.Get(stats.Mid)).To(Equal(3.0))
		Expect(s.Get(stats.Span)).To(Equal(4.0))
		Expect(s.Get(stats.SpanDev)).To(BeNumerically("~", 4*math.Sqrt(2), 1e-12))
		Expect(s.Get(stats.SumOfSquares)).To(Equal(55.0))
		Expect(s.Get(stats.MeanSquare)).To(Equal(11.0))
		Expect(s.Get(stats.RootMeanSquare)).To(Equal(math.Sqrt(11)))
	})

	It("splits negative and positive sums and counts non-zero samples", func() {
		s := stats.NewRunningStat(-2, 0, 3, -1, 4)

		Expect(s.Get(stats.NegSum)).To(Equal(-3.0))
		Expect(s.Get(stats.PosSum)).To(Equal(7.0))
		Expect(s.Get(stats.Sum)).To(Equal(4.0))
		Expect(s.NonZeroCount()).To(Equal(4))
	})

	It("returns zero for every figure while empty", func() {
		s := stats.NewRunningStat()
		for _, f := range allFigures {
			Expect(s.Get(f)).To(Equal(0.0), f.String())
		}
	})

	It("refreshes derived figures after a mutation", func() {
		s := stats.NewRunningStat(2, 2)
		Expect(s.Get(stats.ArithAvg)).To(Equal(2.0))

		s.AddSample(5)
		Expect(s.Get(stats.ArithAvg)).To(Equal(3.0))
		Expect(s.Get(stats.Max)).To(Equal(5.0))
	})

	It("never reports negative variance", func() {
		rng := rand.New(rand.NewSource(7))
		s := stats.NewRunningStat()
		for i := 0; i < 5000; i++ {
			s.AddSample(1e8 + rng.Float64()*1e-6)
			variance := s.Get(stats.Variance)
			Expect(variance).To(BeNumerically(">=", 0))
			Expect(s.Get(stats.StdDev)).To(Equal(math.Sqrt(math.Max(variance, 0))))
		}
	})

	It("replays identically after a reset", func() {
		rng := rand.New(rand.NewSource(11))
		samples := make([]float64, 257)
		for i := range samples {
			samples[i] = rng.NormFloat64() * 3
		}

		replayed := stats.NewRunningStat(99, -4, 12)
		replayed.Get(stats.StdDev)
		replayed.Reset()
		replayed.AddSamples(samples...)
		fresh := stats.NewRunningStat(samples...)

		for _, f := range allFigures {
			Expect(replayed.Get(f)).To(Equal(fresh.Get(f)), f.String())
		}
	})

	It("projects the next sample without mutating", func() {
		s := stats.NewRunningStat(1, 2, 3, 4)
		p := s.SimulateNext(5)

		Expect(p.Mean).To(Equal(3.0))
		Expect(p.Variance).To(Equal(2.0))
		Expect(p.StdDev).To(Equal(math.Sqrt(2)))
		Expect(s.Count()).To(Equal(4))
		Expect(s.Get(stats.ArithAvg)).To(Equal(2.5))
	})

	It("clones into an independent copy", func() {
		s := stats.NewRunningStat(1, 2)
		c := s.Clone()
		c.AddSample(9)

		Expect(s.Count()).To(Equal(2))
		Expect(c.Count()).To(Equal(3))
		Expect(c.Get(stats.Max)).To(Equal(9.0))
	})
})

var _ = Describe("SyncRunningStat", func() {
	It("is selected by NewStat when thread safety is requested", func() {
		Expect(stats.NewStat(true)).To(BeAssignableToTypeOf(&stats.SyncRunningStat{}))
		Expect(stats.NewStat(false)).To(BeAssignableToTypeOf(&stats.RunningStat{}))
	})

	It("accepts samples from many goroutines", func() {
		s := stats.NewStat(true)
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 1; i <= 1000; i++ {
					s.AddSample(float64(i))
					_ = s.Get(stats.ArithAvg)
				}
			}()
		}
		wg.Wait()

		Expect(s.Count()).To(Equal(8000))
		Expect(s.Get(stats.ArithAvg)).To(Equal(500.5))
		Expect(s.Clone().Count()).To(Equal(8000))
	})
})

var _ = Describe("Figure", func() {
	It("parses names case-insensitively", func() {
		f, err := stats.ParseFigure("stddev")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(stats.StdDev))
		Expect(f.String()).To(Equal("StdDev"))
	})

	It("rejects unknown names", func() {
		_, err := stats.ParseFigure("median")
		Expect(err).To(MatchError(stats.ErrUnknownFigure))
	})
})
