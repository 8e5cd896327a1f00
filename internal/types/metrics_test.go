package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type MetricsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (suite *MetricsTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "metrics_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *MetricsTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *MetricsTestSuite) TestWriteMetrics() {
	metrics := Metrics{
		TotalReturn:      0.25,
		AnnualizedReturn: 0.12,
		SharpeRatio:      1.4,
		MaxDrawdown:      -0.08,
		CalmarRatio:      1.5,
		TotalTrades:      42,
		WinningTrades:    25,
		LosingTrades:     17,
		WinRate:          25.0 / 42.0,
	}

	path := filepath.Join(suite.tempDir, "metrics.yaml")
	err := WriteMetrics(path, metrics)
	suite.NoError(err)

	data, err := os.ReadFile(path)
	suite.NoError(err)

	var loaded Metrics
	err = yaml.Unmarshal(data, &loaded)
	suite.NoError(err)
	suite.Equal(metrics, loaded)
}

func (suite *MetricsTestSuite) TestWriteMetricsInvalidPath() {
	err := WriteMetrics(filepath.Join(suite.tempDir, "missing", "metrics.yaml"), Metrics{})
	suite.Error(err)
}
