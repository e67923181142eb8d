package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/datasource DataSource
