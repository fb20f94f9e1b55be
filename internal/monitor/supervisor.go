package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vadimoyt/atlas-bot/internal/models"
	"github.com/vadimoyt/atlas-bot/internal/store"
)

// Notifier отправка текста пользователю
type Notifier interface {
	SendText(chatID int64, text string)
}

// Checker построение запроса и одна проверка наличия мест
type Checker interface {
	BuildRequest(origin, destination string, passengers int, date, timeOfDay string) (string, error)
	Check(ctx context.Context, rawURL, wantTime string) (*models.Match, error)
}

// Observer получает результаты проверок для метрик и статистики.
// Может быть nil.
type Observer interface {
	ObserveCheck(chatID int64, result string)
	SetActiveMonitors(n int)
}

// Результаты проверки для Observer
const (
	CheckMatch        = "match"
	CheckNoMatch      = "no_match"
	CheckError        = "error"
	CheckNotBuildable = "not_buildable"
)

type task struct {
	cancel context.CancelFunc
}

// Supervisor владеет фоновыми задачами мониторинга: не более одной
// горутины на пользователя. Запуск и остановка идемпотентны, остановка
// кооперативная: задача замечает отмену на границе цикла проверки.
type Supervisor struct {
	mu    sync.Mutex
	tasks map[int64]*task

	store    *store.Store
	checker  Checker
	notifier Notifier
	observer Observer
	interval time.Duration

	wg sync.WaitGroup
}

func NewSupervisor(st *store.Store, checker Checker, notifier Notifier, interval time.Duration, observer Observer) *Supervisor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Supervisor{
		tasks:    make(map[int64]*task),
		store:    st,
		checker:  checker,
		notifier: notifier,
		observer: observer,
		interval: interval,
	}
}

// Start запускает задачу мониторинга для пользователя.
// Повторный запуск при живой задаче ничего не делает.
func (s *Supervisor) Start(ctx context.Context, chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[chatID]; exists {
		return
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel}
	s.tasks[chatID] = t
	s.notifyActiveLocked()

	s.wg.Add(1)
	go s.run(taskCtx, chatID, t)
	log.Printf("monitor: запущено отслеживание для чата %d", chatID)
}

// Stop останавливает задачу пользователя. Возвращает true, если задача была.
// Безопасно вызывать для неотслеживаемых пользователей.
func (s *Supervisor) Stop(chatID int64) bool {
	s.mu.Lock()
	t, exists := s.tasks[chatID]
	if exists {
		delete(s.tasks, chatID)
		s.notifyActiveLocked()
	}
	s.mu.Unlock()

	if !exists {
		return false
	}
	t.cancel()
	log.Printf("monitor: отслеживание для чата %d остановлено", chatID)
	return true
}

// IsActive есть ли живая задача для пользователя
func (s *Supervisor) IsActive(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[chatID]
	return ok
}

// ActiveCount число живых задач
func (s *Supervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Shutdown останавливает все задачи и дожидается их завершения
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	for chatID, t := range s.tasks {
		t.cancel()
		delete(s.tasks, chatID)
	}
	s.notifyActiveLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

// run цикл опроса одной задачи. Перед сном и перед следующим циклом
// перечитывается регистрация, чтобы внешний Stop сработал не позже
// одного интервала.
func (s *Supervisor) run(ctx context.Context, chatID int64, t *task) {
	defer s.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		q, ok := s.store.Get(chatID)
		if !ok || q.Stage != models.StageMonitoring || len(q.Schedule) == 0 {
			s.finish(chatID, t, false)
			return
		}

		for _, entry := range q.Schedule {
			s.checkEntry(ctx, chatID, q, entry)
		}

		// расписание могло опустеть после найденных совпадений
		if len(s.store.Schedule(chatID)) == 0 {
			s.finish(chatID, t, true)
			return
		}

		if !s.registered(chatID, t) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

// checkEntry одна проверка одного рейса: запрос, поиск совпадения,
// уведомление и удаление записи при успехе. Ошибки запроса и разбора
// ответа сообщаются пользователю, опрос продолжается.
func (s *Supervisor) checkEntry(ctx context.Context, chatID int64, q models.TrackedQuery, entry models.ScheduleEntry) {
	rawURL, err := s.checker.BuildRequest(q.Origin, q.Destination, q.Passengers, entry.Date, entry.Time)
	if err != nil {
		s.observe(chatID, CheckNotBuildable)
		s.notifier.SendText(chatID, fmt.Sprintf("❌ %v", err))
		return
	}

	match, err := s.checker.Check(ctx, rawURL, entry.Time)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.observe(chatID, CheckError)
		s.notifier.SendText(chatID, fmt.Sprintf("⚠️ %v", err))
		return
	}
	if match == nil {
		s.observe(chatID, CheckNoMatch)
		return
	}

	s.observe(chatID, CheckMatch)
	s.notifier.SendText(chatID, formatMatch(entry, match))
	s.store.RemoveScheduleEntry(chatID, entry)
}

// finish снимает задачу с учета, если она все еще зарегистрирована.
// Удаление записи пользователя идет под той же проверкой регистрации:
// задача, снятая внешним Stop, к записи больше не притрагивается,
// даже если пользователь успел перезапустить диалог.
func (s *Supervisor) finish(chatID int64, t *task, clearRecord bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tasks[chatID]
	if !ok || current != t {
		return
	}
	if clearRecord {
		s.store.Delete(chatID)
	}
	delete(s.tasks, chatID)
	s.notifyActiveLocked()
	t.cancel()
	log.Printf("monitor: отслеживание для чата %d завершено", chatID)
}

func (s *Supervisor) registered(chatID int64, t *task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tasks[chatID]
	return ok && current == t
}

func (s *Supervisor) observe(chatID int64, result string) {
	if s.observer != nil {
		s.observer.ObserveCheck(chatID, result)
	}
}

func (s *Supervisor) notifyActiveLocked() {
	if s.observer != nil {
		s.observer.SetActiveMonitors(len(s.tasks))
	}
}

func formatMatch(entry models.ScheduleEntry, m *models.Match) string {
	return fmt.Sprintf(
		"🎫 Найдены места на %s!\nВремя отправления: %s\nВремя прибытия: %s\nКоличество свободных мест: %d\nЦена билета: %s",
		entry.Date, m.DepartureTime, m.ArrivalTime, m.FreeSeats, m.Price,
	)
}
