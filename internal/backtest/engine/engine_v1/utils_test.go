package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

// UtilsTestSuite is a test suite for utils package
type UtilsTestSuite struct {
	suite.Suite
}

// TestUtilsSuite runs the test suite
func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestGetResultFolder() {
	tests := []struct {
		name          string
		configPath    string
		dataPath      string
		strategyName  string
		resultsFolder string
		expectedPath  string
	}{
		{
			name:          "Basic case",
			configPath:    "/path/to/straddle.yaml",
			dataPath:      "/path/to/SPX_2018.parquet",
			strategyName:  "LongStraddle",
			resultsFolder: "/results",
			expectedPath:  "/results/LongStraddle/straddle/SPX_2018",
		},
		{
			name:          "Inline config",
			configPath:    "config_0",
			dataPath:      "/path/to/SPX_2018.csv",
			strategyName:  "LongStraddle",
			resultsFolder: "/results",
			expectedPath:  "/results/LongStraddle/config_0/SPX_2018",
		},
		{
			name:          "Case with complex file names",
			configPath:    "/path/to/my.config.yaml",
			dataPath:      "/path/to/asx.brexit.parquet",
			strategyName:  "short straddle/asx",
			resultsFolder: "/results",
			expectedPath:  "/results/short_straddle_asx/my.config/asx.brexit",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			resultPath := getResultFolder(tc.resultsFolder, tc.strategyName, tc.configPath, tc.dataPath)

			suite.Assert().Equal(filepath.Clean(tc.expectedPath), filepath.Clean(resultPath), "Result folder path mismatch")
		})
	}
}
