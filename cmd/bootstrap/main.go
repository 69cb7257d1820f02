// Package main 部署前初始化：建表迁移、校验题材参考数据、检查 Redis 连通性
package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"novel-planner/internal/catalog"
	"novel-planner/internal/config"
	"novel-planner/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 校验题材参考数据
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}
	if err := cat.Validate(); err != nil {
		log.Fatalf("invalid catalog: %v", err)
	}
	fmt.Printf("Catalog ok, genres: %s\n", strings.Join(cat.Genres(), ", "))

	// 3. 打开存储（postgres 执行 AutoMigrate，sqlite 建表）
	dataLayer, cleanup, err := wire.InitializeDataLayer(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	if err := dataLayer.Store.Ping(ctx); err != nil {
		log.Fatalf("storage ping failed: %v", err)
	}
	fmt.Printf("Storage %s ready.\n", cfg.Storage.Driver)

	// 4. Redis 为可选依赖
	switch {
	case !cfg.Cache.Redis.Enabled:
		fmt.Println("Redis disabled, market cache and job queue unavailable.")
	case dataLayer.RedisClient == nil:
		fmt.Printf("Redis %s unreachable, continuing without it.\n", cfg.Cache.Redis.Addr())
	default:
		fmt.Printf("Redis %s ready.\n", cfg.Cache.Redis.Addr())
	}

	fmt.Println("Bootstrap completed successfully.")
}
