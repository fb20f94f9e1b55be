package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimoyt/atlas-bot/internal/models"
)

func TestStore_DialogueProgression(t *testing.T) {
	s := New()
	const chatID int64 = 42

	_, ok := s.Get(chatID)
	assert.False(t, ok)

	s.Reset(chatID)
	stage, ok := s.Stage(chatID)
	require.True(t, ok)
	assert.Equal(t, models.StageAwaitingOrigin, stage)

	s.SetOrigin(chatID, "Минск")
	s.SetDestination(chatID, "Дятлово")
	s.SetPassengers(chatID, 2)
	s.SetCurrentDate(chatID, "2025-06-01")

	q, ok := s.Get(chatID)
	require.True(t, ok)
	assert.Equal(t, "Минск", q.Origin)
	assert.Equal(t, "Дятлово", q.Destination)
	assert.Equal(t, 2, q.Passengers)
	assert.Equal(t, "2025-06-01", q.CurrentDate)
	assert.Equal(t, models.StageAwaitingTime, q.Stage)

	entry, ok := s.AppendSchedule(chatID, "08:30")
	require.True(t, ok)
	assert.Equal(t, models.ScheduleEntry{Date: "2025-06-01", Time: "08:30"}, entry)

	q, _ = s.Get(chatID)
	assert.Equal(t, models.StageAwaitingMoreOrDone, q.Stage)
	assert.Empty(t, q.CurrentDate)

	s.RequestAnotherDate(chatID)
	stage, _ = s.Stage(chatID)
	assert.Equal(t, models.StageAwaitingDate, stage)

	s.SetCurrentDate(chatID, "2025-06-02")
	s.AppendSchedule(chatID, "17:45")
	s.StartMonitoring(chatID)

	q, _ = s.Get(chatID)
	assert.Equal(t, models.StageMonitoring, q.Stage)
	assert.Len(t, q.Schedule, 2)
}

func TestStore_ResetClearsEverything(t *testing.T) {
	s := New()
	const chatID int64 = 7

	s.Reset(chatID)
	s.SetOrigin(chatID, "Минск")
	s.SetDestination(chatID, "Дятлово")
	s.SetPassengers(chatID, 1)
	s.SetCurrentDate(chatID, "2025-06-01")
	s.AppendSchedule(chatID, "08:30")

	s.Reset(chatID)
	q, ok := s.Get(chatID)
	require.True(t, ok)
	assert.Equal(t, models.StageAwaitingOrigin, q.Stage)
	assert.Empty(t, q.Origin)
	assert.Empty(t, q.Schedule)
}

func TestStore_RemoveScheduleEntry(t *testing.T) {
	s := New()
	const chatID int64 = 1

	s.Reset(chatID)
	s.SetCurrentDate(chatID, "2025-06-01")
	s.AppendSchedule(chatID, "08:30")
	s.SetCurrentDate(chatID, "2025-06-02")
	s.AppendSchedule(chatID, "17:45")

	remaining := s.RemoveScheduleEntry(chatID, models.ScheduleEntry{Date: "2025-06-01", Time: "08:30"})
	assert.Equal(t, 1, remaining)
	assert.Equal(t, []models.ScheduleEntry{{Date: "2025-06-02", Time: "17:45"}}, s.Schedule(chatID))

	// отсутствующая запись ничего не меняет
	remaining = s.RemoveScheduleEntry(chatID, models.ScheduleEntry{Date: "2025-06-03", Time: "09:00"})
	assert.Equal(t, 1, remaining)

	remaining = s.RemoveScheduleEntry(chatID, models.ScheduleEntry{Date: "2025-06-02", Time: "17:45"})
	assert.Equal(t, 0, remaining)
}

func TestStore_MutatorsAreNoopsForUnknownUser(t *testing.T) {
	s := New()

	s.SetOrigin(99, "Минск")
	s.SetPassengers(99, 3)
	s.StartMonitoring(99)
	_, ok := s.AppendSchedule(99, "08:30")

	assert.False(t, ok)
	assert.Equal(t, 0, s.Count())
	assert.Nil(t, s.Schedule(99))
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := New()
	s.Reset(1)
	s.SetCurrentDate(1, "2025-06-01")
	s.AppendSchedule(1, "08:30")

	q, _ := s.Get(1)
	q.Schedule[0].Time = "09:00"

	assert.Equal(t, "08:30", s.Schedule(1)[0].Time)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	s.Reset(1)
	for i := 0; i < 50; i++ {
		s.SetCurrentDate(1, "2025-06-01")
		s.AppendSchedule(1, "08:30")
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				s.RemoveScheduleEntry(1, models.ScheduleEntry{Date: "2025-06-01", Time: "08:30"})
				s.Schedule(1)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, s.Schedule(1))
}
