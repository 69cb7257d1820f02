//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"novel-planner/internal/config"
	"novel-planner/internal/interfaces/http/router"
)

// InitializeDataLayer 初始化数据层（用于 bootstrap）
func InitializeDataLayer(ctx context.Context, cfg *config.Config) (*DataLayer, func(), error) {
	wire.Build(ProvideDataLayer)
	return nil, nil, nil
}

// InitializeWorker 初始化流水线服务与数据层（用于 job-worker）
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		ServiceSet,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		ServiceSet,
		HTTPSet,
	)
	return nil, nil, nil
}
