package store

import (
	"sync"

	"github.com/vadimoyt/atlas-bot/internal/models"
)

// Store потокобезопасное хранилище запросов пользователей.
// Доступ к записи разделяют обработчик диалога и фоновая задача
// мониторинга того же пользователя, поэтому все операции идут под мьютексом.
// Методы-мутаторы переводят этап диалога вместе с заполнением поля,
// чтобы этап и заполненные поля не могли разойтись.
type Store struct {
	mu    sync.RWMutex
	users map[int64]*models.TrackedQuery
}

func New() *Store {
	return &Store{users: make(map[int64]*models.TrackedQuery)}
}

// Reset создает чистую запись на этапе выбора города отправления
func (s *Store) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[chatID] = &models.TrackedQuery{
		ChatID: chatID,
		Stage:  models.StageAwaitingOrigin,
	}
}

// Delete полностью удаляет запись пользователя
func (s *Store) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, chatID)
}

// Get возвращает копию записи пользователя
func (s *Store) Get(chatID int64) (models.TrackedQuery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.users[chatID]
	if !ok {
		return models.TrackedQuery{}, false
	}
	return snapshot(q), true
}

// Stage текущий этап диалога пользователя
func (s *Store) Stage(chatID int64) (models.Stage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.users[chatID]
	if !ok {
		return "", false
	}
	return q.Stage, true
}

func (s *Store) SetOrigin(chatID int64, city string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.users[chatID]; ok {
		q.Origin = city
		q.Stage = models.StageAwaitingDestination
	}
}

func (s *Store) SetDestination(chatID int64, city string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.users[chatID]; ok {
		q.Destination = city
		q.Stage = models.StageAwaitingPassengers
	}
}

func (s *Store) SetPassengers(chatID int64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.users[chatID]; ok {
		q.Passengers = n
		q.Stage = models.StageAwaitingDate
	}
}

func (s *Store) SetCurrentDate(chatID int64, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.users[chatID]; ok {
		q.CurrentDate = date
		q.Stage = models.StageAwaitingTime
	}
}

// AppendSchedule добавляет пару (ожидающая дата, время) в расписание
// и возвращает добавленную запись
func (s *Store) AppendSchedule(chatID int64, timeOfDay string) (models.ScheduleEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.users[chatID]
	if !ok {
		return models.ScheduleEntry{}, false
	}
	entry := models.ScheduleEntry{Date: q.CurrentDate, Time: timeOfDay}
	q.Schedule = append(q.Schedule, entry)
	q.CurrentDate = ""
	q.Stage = models.StageAwaitingMoreOrDone
	return entry, true
}

// RequestAnotherDate возвращает диалог к вводу даты для следующего рейса
func (s *Store) RequestAnotherDate(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.users[chatID]; ok {
		q.Stage = models.StageAwaitingDate
	}
}

// StartMonitoring помечает диалог завершенным
func (s *Store) StartMonitoring(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.users[chatID]; ok {
		q.Stage = models.StageMonitoring
	}
}

// Schedule копия расписания пользователя
func (s *Store) Schedule(chatID int64) []models.ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.users[chatID]
	if !ok {
		return nil
	}
	out := make([]models.ScheduleEntry, len(q.Schedule))
	copy(out, q.Schedule)
	return out
}

// RemoveScheduleEntry удаляет первую совпадающую запись расписания
// и возвращает число оставшихся
func (s *Store) RemoveScheduleEntry(chatID int64, entry models.ScheduleEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.users[chatID]
	if !ok {
		return 0
	}
	for i, e := range q.Schedule {
		if e == entry {
			q.Schedule = append(q.Schedule[:i], q.Schedule[i+1:]...)
			break
		}
	}
	return len(q.Schedule)
}

// All копии всех записей; порядок не гарантируется
func (s *Store) All() []models.TrackedQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TrackedQuery, 0, len(s.users))
	for _, q := range s.users {
		out = append(out, snapshot(q))
	}
	return out
}

// Count число отслеживаемых пользователей
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func snapshot(q *models.TrackedQuery) models.TrackedQuery {
	cp := *q
	cp.Schedule = make([]models.ScheduleEntry, len(q.Schedule))
	copy(cp.Schedule, q.Schedule)
	return cp
}
