package atlas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vadimoyt/atlas-bot/internal/cities"
	"github.com/vadimoyt/atlas-bot/internal/models"
)

const DefaultBaseURL = "https://atlasbus.by/api/search"

var (
	// ErrNotBuildable запрос не построен: город не найден в реестре
	ErrNotBuildable = errors.New("не удалось построить запрос: неизвестный город")
	// ErrFetch ошибка обращения к upstream-API
	ErrFetch = errors.New("ошибка запроса к API")
	// ErrParse ответ upstream-API не разобран
	ErrParse = errors.New("не удалось распарсить ответ API")
)

// Ride рейс в ответе upstream-API
type Ride struct {
	DepartureTime string      `json:"departureTime"`
	ArrivalTime   string      `json:"arrivalTime"`
	FreeSeats     int         `json:"freeSeats"`
	Price         json.Number `json:"price"`
}

// Client клиент поиска рейсов atlasbus
type Client struct {
	httpClient *http.Client
	baseURL    string
	registry   *cities.Registry
}

func NewClient(baseURL string, registry *cities.Registry) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		registry:   registry,
	}
}

// BuildRequest формирует URL поиска по накопленному запросу.
// Возвращает ErrNotBuildable, если хотя бы один город не резолвится.
func (c *Client) BuildRequest(origin, destination string, passengers int, date, timeOfDay string) (string, error) {
	fromID, ok := c.registry.Resolve(origin)
	if !ok {
		return "", ErrNotBuildable
	}
	toID, ok := c.registry.Resolve(destination)
	if !ok {
		return "", ErrNotBuildable
	}

	params := url.Values{}
	params.Set("from_id", fromID)
	params.Set("to_id", toID)
	params.Set("date", date)
	params.Set("time", timeOfDay)
	params.Set("passengers", fmt.Sprintf("%d", passengers))

	return c.baseURL + "?" + params.Encode(), nil
}

// Check выполняет один запрос к upstream-API и ищет рейс с точным
// совпадением времени отправления и свободными местами.
// Возвращает nil, nil если подходящего рейса нет.
func (c *Client) Check(ctx context.Context, rawURL, wantTime string) (*models.Match, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	rides, err := decodeRides(body)
	if err != nil {
		return nil, err
	}

	for _, ride := range rides {
		if clockPart(ride.DepartureTime) != wantTime {
			continue
		}
		if ride.FreeSeats <= 0 {
			continue
		}
		return &models.Match{
			DepartureTime: clockPart(ride.DepartureTime),
			ArrivalTime:   clockPart(ride.ArrivalTime),
			FreeSeats:     ride.FreeSeats,
			Price:         priceText(ride.Price),
		}, nil
	}
	return nil, nil
}

// decodeRides разбирает оба формата ответа: голый массив рейсов
// либо объект с полем rides.
func decodeRides(body []byte) ([]Ride, error) {
	var bare []Ride
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var wrapped struct {
		Rides []Ride `json:"rides"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		return wrapped.Rides, nil
	}

	return nil, ErrParse
}

// clockPart выделяет ЧЧ:ММ из полной даты-времени ("2025-06-01T08:30:00" -> "08:30").
// Значение, уже записанное как ЧЧ:ММ, возвращается как есть.
func clockPart(s string) string {
	if len(s) >= 16 && s[4] == '-' && s[7] == '-' {
		return s[11:16]
	}
	return s
}

func priceText(p json.Number) string {
	if p == "" {
		return "не указано"
	}
	return p.String()
}
