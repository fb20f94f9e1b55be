package models

// Stage этап диалога с пользователем
type Stage string

const (
	StageAwaitingOrigin      Stage = "awaiting_origin"
	StageAwaitingDestination Stage = "awaiting_destination"
	StageAwaitingPassengers  Stage = "awaiting_passengers"
	StageAwaitingDate        Stage = "awaiting_date"
	StageAwaitingTime        Stage = "awaiting_time"
	StageAwaitingMoreOrDone  Stage = "awaiting_more_or_done"
	StageMonitoring          Stage = "monitoring"
)

// ScheduleEntry один отслеживаемый рейс: дата и время отправления
type ScheduleEntry struct {
	Date string // ГГГГ-ММ-ДД
	Time string // ЧЧ:ММ
}

// TrackedQuery накопленный запрос пользователя и этап диалога.
// Инвариант: поле заполнено тогда и только тогда, когда пройден
// соответствующий этап диалога.
type TrackedQuery struct {
	ChatID      int64
	Origin      string
	Destination string
	Passengers  int
	CurrentDate string // дата, ожидающая ввода времени
	Schedule    []ScheduleEntry
	Stage       Stage
}

// City запись реестра городов: отображаемое имя и идентификатор upstream-API
type City struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// Match найденный рейс со свободными местами
type Match struct {
	DepartureTime string
	ArrivalTime   string
	FreeSeats     int
	Price         string
}
