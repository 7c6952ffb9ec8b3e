package main

import (
	"flag"
	"fmt"

	"github.com/redis/go-redis/v9"

	"QuantDataHub/pkg/api"
	"QuantDataHub/pkg/cache"
	"QuantDataHub/pkg/collector"
	"QuantDataHub/pkg/config"
	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/messaging"
	"QuantDataHub/pkg/syncer"
)

func main() {
	configPath := flag.String("config", config.GetDefaultConfigPath(), "配置文件路径")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}

	logger.Setup(cfg.App.Env)
	defer logger.Sync()
	logger.Info("启动API服务...")

	db, err := database.NewMySQL(cfg)
	if err != nil {
		logger.Fatal("连接数据库失败: " + err.Error())
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.Fatal("数据库迁移失败: " + err.Error())
	}

	// Redis未配置时缓存层直接透传数据库
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}
	klineCache := cache.NewKlineCache(db, rdb, cfg.Redis.TTL)

	// NATS未配置时用空发布器
	var publisher messaging.EventPublisher = messaging.NopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := messaging.NewNATSClient(cfg.NATS.URL)
		if err != nil {
			logger.Warn("连接NATS失败，同步事件将不发布: " + err.Error())
		} else {
			defer nc.Close()
			publisher = messaging.NewNATSPublisher(nc)
		}
	}

	qmt := collector.NewQMTAdapter(cfg.DataSources.QMT.BaseURL, cfg.DataSources.QMT.Timeout)
	akshare := collector.NewAKShareAdapter(cfg.DataSources.AKShare.BaseURL, cfg.DataSources.AKShare.Timeout)

	syncSvc := syncer.NewService(db, qmt, qmt, qmt, akshare, publisher, cfg)

	handlers := api.NewHandlers(db, klineCache, syncSvc)
	server := api.NewServer(cfg.API.Port, cfg.API.ReadTimeout, cfg.API.WriteTimeout)
	server.SetupRoutes(handlers)
	server.Start()
}
