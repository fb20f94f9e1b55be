package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vadimoyt/atlas-bot/internal/atlas"
	"github.com/vadimoyt/atlas-bot/internal/bot"
	"github.com/vadimoyt/atlas-bot/internal/cities"
	"github.com/vadimoyt/atlas-bot/internal/config"
	"github.com/vadimoyt/atlas-bot/internal/repository"
	"github.com/vadimoyt/atlas-bot/internal/store"
)

func main() {
	// Загрузка конфигурации
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		log.Fatal("Задайте токен бота через BOT_TOKEN или config.yaml")
	}

	// Загрузка городов из отдельного файла
	citiesPath := os.Getenv("CITIES_PATH")
	if citiesPath == "" {
		citiesPath = "configs/cities.yaml"
	}
	cityEntries, err := config.LoadCities(citiesPath)
	if err != nil {
		log.Fatalf("Ошибка чтения %s: %v", citiesPath, err)
	}
	registry := cities.NewRegistry(cityEntries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Инициализация Redis (необязательно)
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, redisClient); err != nil {
			log.Printf("Redis unavailable, falling back to in-memory stats: %v", err)
			redisClient = nil
		}
	}
	stats := repository.NewStats(redisClient)
	defer repository.Close(redisClient)

	// Метрики Prometheus
	var metrics *bot.Metrics
	if cfg.Monitoring.PrometheusEnabled {
		metrics = bot.NewMetrics()
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
			if err := http.ListenAndServe(addr, nil); err != nil {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	client := atlas.NewClient(cfg.Atlas.BaseURL, registry)

	telegramBot, err := bot.NewBot(cfg, registry, client, store.New(), stats, metrics)
	if err != nil {
		log.Fatal("Ошибка создания бота:", err)
	}

	log.Println("Бот запущен...")

	// Цикл получения обновлений перезапускается после сбоя транспорта
	for ctx.Err() == nil {
		telegramBot.Start(ctx)
		if ctx.Err() == nil {
			log.Println("Polling остановился, перезапуск через 5 секунд...")
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
		}
	}

	log.Println("Shutdown signal received...")
	telegramBot.Stop()
}
