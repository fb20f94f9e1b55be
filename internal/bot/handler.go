package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimoyt/atlas-bot/internal/atlas"
	"github.com/vadimoyt/atlas-bot/internal/cities"
	"github.com/vadimoyt/atlas-bot/internal/config"
	"github.com/vadimoyt/atlas-bot/internal/models"
	"github.com/vadimoyt/atlas-bot/internal/monitor"
	"github.com/vadimoyt/atlas-bot/internal/repository"
	"github.com/vadimoyt/atlas-bot/internal/store"
)

const (
	choiceAddMore = "Добавить ещё"
	choiceDone    = "Готово"
)

type Bot struct {
	api       *tgbotapi.BotAPI
	cfg       *config.Config
	registry  *cities.Registry
	store     *store.Store
	monitor   *monitor.Supervisor
	send      Sender
	stats     *repository.Stats
	metrics   *Metrics
	managers  map[int64]struct{}
	blacklist map[int64]struct{}
}

func NewBot(cfg *config.Config, registry *cities.Registry, client *atlas.Client, st *store.Store, stats *repository.Stats, metrics *Metrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, err
	}
	api.Debug = cfg.Telegram.Debug

	send := &tgSender{api: api}
	sup := monitor.NewSupervisor(st, client, send, cfg.Monitor.Interval(), newCheckObserver(metrics, stats))

	return &Bot{
		api:       api,
		cfg:       cfg,
		registry:  registry,
		store:     st,
		monitor:   sup,
		send:      send,
		stats:     stats,
		metrics:   metrics,
		managers:  idSet(cfg.Managers),
		blacklist: idSet(cfg.Blacklist),
	}, nil
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Start запускает цикл получения обновлений; возвращается по отмене контекста
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	log.Printf("Authorized on account %s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			userID := update.Message.Chat.ID
			if update.Message.From != nil {
				userID = update.Message.From.ID
			}
			b.dispatch(ctx, update.Message.Chat.ID, userID, update.Message.Text)
		}
	}
}

// Stop останавливает фоновые задачи мониторинга
func (b *Bot) Stop() {
	b.monitor.Shutdown()
}

// dispatch обрабатывает одно входящее сообщение
func (b *Bot) dispatch(ctx context.Context, chatID, userID int64, text string) {
	if b.isBlacklisted(userID) {
		return
	}

	if b.metrics != nil {
		b.metrics.MessagesProcessed.Inc()
	}

	switch {
	case text == "/start":
		if b.metrics != nil {
			b.metrics.CommandsProcessed.Inc()
		}
		b.handleStart(chatID)

	case text == "/stop":
		if b.metrics != nil {
			b.metrics.CommandsProcessed.Inc()
		}
		b.handleStop(chatID)

	case text == "/stats" && b.isManager(userID):
		b.handleStats(ctx, chatID)

	case text == "/export" && b.isManager(userID):
		b.handleExport(chatID)

	default:
		b.handleDialogue(ctx, chatID, text)
	}
}

// handleStart глобальный перезапуск: сначала останавливаем задачу
// мониторинга, только потом чистим запись, чтобы задача не увидела
// вычищенное расписание.
func (b *Bot) handleStart(chatID int64) {
	b.monitor.Stop(chatID)
	b.store.Reset(chatID)
	b.send.PromptChoices(chatID, "Привет! Выберите город отправления:", b.registry.Names())
}

func (b *Bot) handleStop(chatID int64) {
	if b.monitor.Stop(chatID) {
		b.send.SendText(chatID, "🚫 Отслеживание остановлено.")
	} else {
		b.send.SendText(chatID, "❌ Нет активного отслеживания.")
	}
}

// handleDialogue продвигает диалог пользователя по этапам.
// Неподходящий текст на этапах выбора города и числа пассажиров
// игнорируется молча; на этапах даты и времени пользователь получает
// подсказку о формате и остается на том же этапе.
func (b *Bot) handleDialogue(ctx context.Context, chatID int64, text string) {
	stage, ok := b.store.Stage(chatID)
	if !ok {
		// запись заводится и без /start, если первое сообщение - известный город
		if _, known := b.registry.Resolve(text); !known {
			return
		}
		b.store.Reset(chatID)
		stage = models.StageAwaitingOrigin
	}

	switch stage {
	case models.StageAwaitingOrigin:
		if _, known := b.registry.Resolve(text); !known {
			return
		}
		b.store.SetOrigin(chatID, text)
		b.send.PromptChoices(chatID, "Теперь выберите город назначения:", b.registry.Others(text))

	case models.StageAwaitingDestination:
		q, _ := b.store.Get(chatID)
		if _, known := b.registry.Resolve(text); !known || text == q.Origin {
			return
		}
		b.store.SetDestination(chatID, text)
		b.send.PromptChoices(chatID, "Выберите количество пассажиров:", []string{"1", "2", "3", "4", "5"})

	case models.StageAwaitingPassengers:
		n, err := strconv.Atoi(text)
		if err != nil || n <= 0 {
			return
		}
		b.store.SetPassengers(chatID, n)
		b.send.SendText(chatID, "Введите дату отправления (ГГГГ-ММ-ДД):")

	case models.StageAwaitingDate:
		if _, err := time.Parse("2006-01-02", text); err != nil {
			b.send.SendText(chatID, "Неверный формат даты. Используйте ГГГГ-ММ-ДД.")
			return
		}
		b.store.SetCurrentDate(chatID, text)
		b.send.SendText(chatID, "Введите время отправления (ЧЧ:ММ):")

	case models.StageAwaitingTime:
		if _, err := time.Parse("15:04", text); err != nil {
			b.send.SendText(chatID, "Неверный формат времени. Используйте ЧЧ:ММ.")
			return
		}
		entry, _ := b.store.AppendSchedule(chatID, text)
		b.send.PromptChoices(chatID,
			fmt.Sprintf("Дата и время добавлены: %s %s\nВыберите действие:", entry.Date, entry.Time),
			[]string{choiceAddMore, choiceDone})

	case models.StageAwaitingMoreOrDone:
		switch text {
		case choiceAddMore:
			b.store.RequestAnotherDate(chatID)
			b.send.SendText(chatID, "Введите дату отправления (ГГГГ-ММ-ДД):")
		case choiceDone:
			b.store.StartMonitoring(chatID)
			b.monitor.Start(ctx, chatID)
			b.send.SendText(chatID, "✅ Мониторинг запущен.")
		}

	case models.StageMonitoring:
		// диалог завершен, сообщения игнорируются до перезапуска
	}
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	checks, matches := b.stats.Totals(ctx)
	b.send.SendText(chatID, fmt.Sprintf(
		"📊 Статистика\nАктивных отслеживаний: %d\nПользователей с запросами: %d\nПроверок выполнено: %d\nРейсов найдено: %d",
		b.monitor.ActiveCount(), b.store.Count(), checks, matches))
}

func (b *Bot) isManager(userID int64) bool {
	_, ok := b.managers[userID]
	return ok
}

func (b *Bot) isBlacklisted(userID int64) bool {
	_, ok := b.blacklist[userID]
	return ok
}
