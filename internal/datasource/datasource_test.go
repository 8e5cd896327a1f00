package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

func testBars(n int) types.BarSeries {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make(types.BarSeries, 0, n)

	for i := 0; i < n; i++ {
		price := 100.0 + float64(i)
		bars = append(bars, types.Bar{
			Time:   base.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
			Signal: types.SignalNeutral,
		})
	}

	return bars
}

type SliceBarSourceTestSuite struct {
	suite.Suite
	source BarSource
	bars   types.BarSeries
}

func TestSliceBarSourceSuite(t *testing.T) {
	suite.Run(t, new(SliceBarSourceTestSuite))
}

func (suite *SliceBarSourceTestSuite) SetupTest() {
	suite.bars = testBars(5)
	suite.source = NewSliceBarSource(suite.bars)
}

func (suite *SliceBarSourceTestSuite) TestReadAll() {
	series, err := ReadSeries(suite.source, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(suite.bars, series)
}

func (suite *SliceBarSourceTestSuite) TestReadRange() {
	start := optional.Some(suite.bars[1].Time)
	end := optional.Some(suite.bars[3].Time)

	series, err := ReadSeries(suite.source, start, end)
	suite.Require().NoError(err)
	suite.Require().Len(series, 3)
	suite.Equal(suite.bars[1], series[0])
	suite.Equal(suite.bars[3], series[2])
}

func (suite *SliceBarSourceTestSuite) TestCount() {
	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(5, count)

	count, err = suite.source.Count(optional.Some(suite.bars[3].Time), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(2, count)
}

func (suite *SliceBarSourceTestSuite) TestEarlyStop() {
	seen := 0

	suite.source.ReadAll(optional.None[time.Time](), optional.None[time.Time]())(func(bar types.Bar, err error) bool {
		suite.Require().NoError(err)
		seen++

		return seen < 2
	})

	suite.Equal(2, seen)
}

type DuckDBBarSourceTestSuite struct {
	suite.Suite
	source BarSource
}

func TestDuckDBBarSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBBarSourceTestSuite))
}

func (suite *DuckDBBarSourceTestSuite) SetupTest() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)

	source, err := NewDuckDBBarSource(log)
	suite.Require().NoError(err)
	suite.source = source
}

func (suite *DuckDBBarSourceTestSuite) TearDownTest() {
	suite.Require().NoError(suite.source.Close())
}

// writeCSV writes a bar CSV fixture and returns its path.
func (suite *DuckDBBarSourceTestSuite) writeCSV(rows []string) string {
	path := filepath.Join(suite.T().TempDir(), "bars.csv")

	content := "time,open,high,low,close,volume,signal\n"
	for _, row := range rows {
		content += row + "\n"
	}

	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *DuckDBBarSourceTestSuite) fixtureRows(n int) []string {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]string, 0, n)

	for i := 0; i < n; i++ {
		price := 100.0 + float64(i)
		rows = append(rows, fmt.Sprintf("%s,%.2f,%.2f,%.2f,%.2f,1000,%d",
			base.AddDate(0, 0, i).Format(time.RFC3339), price, price+1, price-1, price, (i%3)-1))
	}

	return rows
}

func (suite *DuckDBBarSourceTestSuite) TestInitializeAndReadAll() {
	path := suite.writeCSV(suite.fixtureRows(10))
	suite.Require().NoError(suite.source.Initialize(path))

	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(10, count)

	series, err := ReadSeries(suite.source, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(series, 10)

	suite.Equal(100.0, series[0].Close)
	suite.Equal(types.SignalShort, series[0].Signal)
	suite.Equal(types.SignalNeutral, series[1].Signal)
	suite.Equal(types.SignalLong, series[2].Signal)

	suite.NoError(series.Validate())
}

func (suite *DuckDBBarSourceTestSuite) TestReadRange() {
	path := suite.writeCSV(suite.fixtureRows(10))
	suite.Require().NoError(suite.source.Initialize(path))

	start := optional.Some(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	end := optional.Some(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))

	count, err := suite.source.Count(start, end)
	suite.Require().NoError(err)
	suite.Equal(4, count)

	series, err := ReadSeries(suite.source, start, end)
	suite.Require().NoError(err)
	suite.Require().Len(series, 4)
	suite.Equal(102.0, series[0].Close)
	suite.Equal(105.0, series[3].Close)
}

func (suite *DuckDBBarSourceTestSuite) TestMalformedRowsDropped() {
	rows := suite.fixtureRows(5)
	// High below close, negative price, out-of-domain signal. All three
	// must be filtered out at load time.
	rows = append(rows,
		"2024-02-01T00:00:00Z,100,99,98,100,1000,1",
		"2024-02-02T00:00:00Z,-5,1,-10,-5,1000,0",
		"2024-02-03T00:00:00Z,100,101,99,100,1000,7",
	)

	path := suite.writeCSV(rows)
	suite.Require().NoError(suite.source.Initialize(path))

	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(5, count)
}

func (suite *DuckDBBarSourceTestSuite) TestUnsupportedFormat() {
	err := suite.source.Initialize("bars.json")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}

func (suite *DuckDBBarSourceTestSuite) TestMissingFile() {
	err := suite.source.Initialize(filepath.Join(suite.T().TempDir(), "absent.csv"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}
