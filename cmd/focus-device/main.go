package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/echome-smart/focus-device/internal/api"
	"github.com/echome-smart/focus-device/internal/app"
	"github.com/echome-smart/focus-device/internal/config"
	"github.com/echome-smart/focus-device/internal/dispatch"
	"github.com/echome-smart/focus-device/internal/display"
	"github.com/echome-smart/focus-device/internal/storage"
	"github.com/echome-smart/focus-device/internal/transport"
)

func main() {
	// 命令行参数
	var configFile string
	flag.StringVar(&configFile, "config", "config/focus-device.yml", "配置文件路径")
	flag.Parse()

	// 设置日志
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// 加载配置, 没有配置文件时使用默认值
	var cfg *config.Config
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Warn().Str("file", configFile).Msg("配置文件不存在, 使用默认配置")
		cfg = config.Default()
	} else {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			log.Fatal().Err(err).Msg("加载配置失败")
		}
	}

	// 设置日志级别
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Str("device", cfg.Device.Name).Msg("Focus Device 启动中...")

	// 打开串口
	var serialPort *transport.SerialPort
	if cfg.Serial.Enabled {
		serialPort, err = transport.OpenSerial(cfg.Serial.PortPath, cfg.Serial.BaudRate)
		if err != nil {
			// 串口不可用时设备照常运行, 只是伴侣信号发不出去
			log.Error().Err(err).Str("port", cfg.Serial.PortPath).Msg("打开串口失败")
		} else {
			defer serialPort.Close()
			log.Info().Str("port", cfg.Serial.PortPath).Msg("串口已打开")
		}
	}

	// 创建 MQTT 发布器
	var broker *transport.MQTTPublisher
	if cfg.Broker.Enabled {
		broker = transport.NewMQTTPublisher(transport.BrokerOptions{
			Host:           cfg.Broker.Host,
			Port:           cfg.Broker.Port,
			ClientID:       cfg.Broker.ClientID,
			Username:       cfg.Broker.Username,
			Password:       cfg.Broker.Password,
			QoS:            byte(cfg.Broker.QoS),
			KeepAlive:      cfg.Broker.KeepAlive,
			ConnectTimeout: cfg.Broker.ConnectTimeout,
			PollInterval:   cfg.Broker.PollInterval,
		})
		defer broker.Close()
	}

	// 创建信号分发器, 缺失的通道保持为 nil
	var serialWriter dispatch.SerialWriter
	if serialPort != nil {
		serialWriter = serialPort
	}
	var brokerPublisher dispatch.BrokerPublisher
	if broker != nil {
		brokerPublisher = broker
	}
	dispatcher := dispatch.NewDispatcher(serialWriter, brokerPublisher)
	defer dispatcher.Close()

	// 打开会话历史数据库
	var store storage.Store
	if cfg.Database.Enabled {
		sqliteStore, err := storage.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("打开数据库失败")
		}
		defer sqliteStore.Close()
		store = sqliteStore

		log.Info().Str("path", cfg.Database.Path).Msg("会话历史数据库已打开")
	}

	// 组装核心
	core := app.New(cfg, display.Log{}, dispatcher, store)

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动事件循环
	go func() {
		if err := core.Run(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("事件循环停止")
		}
	}()

	// 启动 REST API
	var restServer *api.RESTServer
	if cfg.API.Enabled {
		restServer = api.NewRESTServer(cfg, core)
		go func() {
			if err := restServer.ListenAndServe(cfg.API.Addr()); err != nil {
				log.Error().Err(err).Msg("REST API 服务器停止")
			}
		}()
	}

	// 等待信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("收到信号，正在关闭...")

	// 先停 API, 再停事件循环
	if restServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := restServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("REST API 关闭失败")
		}
		shutdownCancel()
	}
	cancel()

	log.Info().Msg("Focus Device 已停止")
}
