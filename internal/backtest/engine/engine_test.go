package engine

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) TestOnStageCallbackType() {
	var callback OnStageCallback = func(stage string, records int) error {
		return nil
	}

	suite.NotNil(callback)
	suite.NoError(callback("entry", 10))
}

func (suite *EngineTestSuite) TestOnStageCallbackRecordsStages() {
	var stages []string

	callback := OnStageCallback(func(stage string, records int) error {
		stages = append(stages, stage)

		return nil
	})

	callbacks := LifecycleCallbacks{OnStage: &callback}

	for _, stage := range []string{"init", "entry", "exit"} {
		suite.NoError((*callbacks.OnStage)(stage, 1))
	}

	suite.Equal([]string{"init", "entry", "exit"}, stages)
	suite.Nil(callbacks.OnRunStart)
}
