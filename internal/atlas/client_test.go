package atlas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimoyt/atlas-bot/internal/cities"
	"github.com/vadimoyt/atlas-bot/internal/models"
)

func testRegistry() *cities.Registry {
	return cities.NewRegistry([]models.City{
		{Name: "Минск", ID: "c625144"},
		{Name: "Дятлово", ID: "c628658"},
	})
}

func TestBuildRequest(t *testing.T) {
	c := NewClient("https://example.test/api/search", testRegistry())

	u, err := c.BuildRequest("Минск", "Дятлово", 2, "2025-06-01", "08:30")
	require.NoError(t, err)
	assert.Contains(t, u, "from_id=c625144")
	assert.Contains(t, u, "to_id=c628658")
	assert.Contains(t, u, "date=2025-06-01")
	assert.Contains(t, u, "time=08%3A30")
	assert.Contains(t, u, "passengers=2")
}

func TestBuildRequest_UnknownCity(t *testing.T) {
	c := NewClient("", testRegistry())

	_, err := c.BuildRequest("Гродно", "Дятлово", 1, "2025-06-01", "08:30")
	assert.ErrorIs(t, err, ErrNotBuildable)

	_, err = c.BuildRequest("Минск", "Гродно", 1, "2025-06-01", "08:30")
	assert.ErrorIs(t, err, ErrNotBuildable)
}

func TestCheck_MatchFromWrappedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rides":[
			{"departureTime":"2025-06-01T07:00:00","arrivalTime":"2025-06-01T09:40:00","freeSeats":5,"price":12},
			{"departureTime":"2025-06-01T08:30:00","arrivalTime":"2025-06-01T11:10:00","freeSeats":3,"price":12.5}
		]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, testRegistry())
	match, err := c.Check(context.Background(), server.URL, "08:30")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "08:30", match.DepartureTime)
	assert.Equal(t, "11:10", match.ArrivalTime)
	assert.Equal(t, 3, match.FreeSeats)
	assert.Equal(t, "12.5", match.Price)
}

func TestCheck_MatchFromBareListResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"departureTime":"08:30","arrivalTime":"11:10","freeSeats":1,"price":9}]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, testRegistry())
	match, err := c.Check(context.Background(), server.URL, "08:30")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 1, match.FreeSeats)
}

func TestCheck_NoSeatsIsNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rides":[{"departureTime":"2025-06-01T08:30:00","arrivalTime":"2025-06-01T11:10:00","freeSeats":0,"price":12}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, testRegistry())
	match, err := c.Check(context.Background(), server.URL, "08:30")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestCheck_WrongTimeIsNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rides":[{"departureTime":"2025-06-01T07:00:00","arrivalTime":"2025-06-01T09:40:00","freeSeats":5,"price":12}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, testRegistry())
	match, err := c.Check(context.Background(), server.URL, "08:30")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestCheck_EmptyRides(t *testing.T) {
	for _, body := range []string{`{"rides":[]}`, `[]`, `{}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		c := NewClient(server.URL, testRegistry())
		match, err := c.Check(context.Background(), server.URL, "08:30")
		assert.NoError(t, err, body)
		assert.Nil(t, match, body)
		server.Close()
	}
}

func TestCheck_ParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>502 Bad Gateway</html>`))
	}))
	defer server.Close()

	c := NewClient(server.URL, testRegistry())
	_, err := c.Check(context.Background(), server.URL, "08:30")
	assert.ErrorIs(t, err, ErrParse)
}

func TestCheck_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // соединение будет отклонено

	c := NewClient(server.URL, testRegistry())
	_, err := c.Check(context.Background(), server.URL, "08:30")
	assert.ErrorIs(t, err, ErrFetch)
	assert.NotErrorIs(t, err, ErrParse)
}

func TestClockPart(t *testing.T) {
	assert.Equal(t, "08:30", clockPart("2025-06-01T08:30:00"))
	assert.Equal(t, "08:30", clockPart("2025-06-01 08:30:00"))
	assert.Equal(t, "08:30", clockPart("08:30"))
}
