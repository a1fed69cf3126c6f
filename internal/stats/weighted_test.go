package stats_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sanspareilsmyn/reservoirlens/internal/stats"
)

var _ = Describe("WeightedAccumulator", func() {
	var acc *stats.WeightedAccumulator

	BeforeEach(func() {
		acc = stats.NewWeightedAccumulator()
	})

	It("averages and removes samples", func() {
		acc.AddSample(2, 1)
		Expect(acc.AddSample(4, 1)).To(Equal(3.0))

		avg, err := acc.RemoveSample(2, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(avg).To(Equal(4.0))
		Expect(acc.Count()).To(Equal(1))
	})

	It("restores the exact prior state after add then remove", func() {
		acc.AddSample(0.1, 0.3)
		acc.AddSample(-7.25, 2)
		before := acc.State()

		acc.AddSample(0.2, 0.7)
		_, err := acc.RemoveSample(0.2, 0.7)
		Expect(err).NotTo(HaveOccurred())
		Expect(acc.State()).To(Equal(before))
	})

	It("snaps both sums to zero when the last sample leaves", func() {
		acc.AddSample(0.1, 0.3)
		acc.AddSample(0.2, 0.6)
		_, _ = acc.RemoveSample(0.1, 0.3)
		avg, err := acc.RemoveSample(0.25, 0.6)

		Expect(err).NotTo(HaveOccurred())
		Expect(avg).To(Equal(0.0))
		Expect(acc.State()).To(Equal(stats.WeightedState{}))
	})

	It("fails to remove from an empty accumulator", func() {
		_, err := acc.RemoveSample(1, 1)
		Expect(err).To(MatchError(stats.ErrEmptyAccumulator))
	})

	It("projects without mutating", func() {
		acc.AddSample(2, 1)
		Expect(acc.SimulateNext(4, 3)).To(Equal(3.5))
		Expect(acc.Average()).To(Equal(2.0))
		Expect(acc.Count()).To(Equal(1))
	})

	It("reports zero average without weight", func() {
		Expect(acc.Average()).To(Equal(0.0))
		acc.AddSample(5, 0)
		Expect(acc.Average()).To(Equal(0.0))
	})

	It("keeps relative precision for tiny averages", func() {
		acc.AddSample(1.234567890123e-12, 1)
		acc.AddSample(1.234567890123e-12, 2)
		Expect(acc.Average()).To(BeNumerically("~", 1.234567890123e-12, 1e-24))

		acc.Reset()
		acc.AddSample(3e-17, 1)
		acc.AddSample(3e-17, 1)
		Expect(acc.Average()).To(BeNumerically("~", 3e-17, 1e-29))
		Expect(acc.SimulateNext(3e-17, 2)).To(BeNumerically("~", 3e-17, 1e-29))

		avg, err := acc.RemoveSample(3e-17, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(avg).To(BeNumerically("~", 3e-17, 1e-29))
	})

	It("resets to empty", func() {
		acc.AddSample(5, 2)
		acc.Reset()
		Expect(acc.State()).To(Equal(stats.WeightedState{}))
	})
})
