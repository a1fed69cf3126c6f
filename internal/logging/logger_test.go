package logging_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/reservoirlens/internal/config"
	"github.com/sanspareilsmyn/reservoirlens/internal/logging"
)

var _ = Describe("NewLogger", func() {
	It("writes JSON lines to the rotating file", func() {
		dir := GinkgoT().TempDir()
		logger, err := logging.NewLogger(config.LogConfig{
			Level:              "info",
			Format:             "json",
			FileLoggingEnabled: true,
			Directory:          dir,
			Filename:           "test.log",
			MaxSize:            1,
		})
		Expect(err).NotTo(HaveOccurred())

		logger.Info("predictor vector emitted", zap.String("unit_id", "n-1"))
		logger.Debug("hidden below info")
		_ = logger.Sync()

		data, err := os.ReadFile(filepath.Join(dir, "test.log"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"unit_id":"n-1"`))
		Expect(string(data)).NotTo(ContainSubstring("hidden below info"))
	})

	It("falls back to info on an unknown level", func() {
		logger, err := logging.NewLogger(config.LogConfig{Level: "loud", Format: "console"})
		Expect(err).NotTo(HaveOccurred())
		Expect(logger.Core().Enabled(zap.InfoLevel)).To(BeTrue())
		Expect(logger.Core().Enabled(zap.DebugLevel)).To(BeFalse())
	})

	It("fails without any output", func() {
		_, err := logging.NewLogger(config.LogConfig{Level: "info", Format: "json"})
		Expect(err).To(MatchError(logging.ErrNoLogOutputs))
	})
})
