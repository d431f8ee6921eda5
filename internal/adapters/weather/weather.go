// Package weather looks up current conditions at a venue.
//
// Lookups never fail loudly: any error yields an empty string and callers
// fall back to the weather label of the event.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/pkg/logger"
	"github.com/okian/paddock/pkg/metrics"
	"github.com/tidwall/gjson"
)

const (
	defaultURL     = "https://api.open-meteo.com/v1/forecast"
	defaultTimeout = 5 * time.Second
	maxBody        = 1 << 20
	currentFields  = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m"
)

// Venue is a track with coordinates.
type Venue struct {
	Name string
	Lat  float64
	Lng  float64
}

var (
	seoul = Venue{Name: "서울(과천)", Lat: 37.4439, Lng: 127.0043}
	busan = Venue{Name: "부산경남", Lat: 35.1558, Lng: 128.8787}
	jeju  = Venue{Name: "제주", Lat: 33.4216, Lng: 126.4764}
)

// VenueFor maps a location label to a venue, defaulting to Seoul.
func VenueFor(location string) Venue {
	loc := model.CleanLocation(location)
	switch {
	case strings.Contains(loc, "부산"), strings.Contains(loc, "부경"):
		return busan
	case strings.Contains(loc, "제주"):
		return jeju
	default:
		return seoul
	}
}

// Describe maps a WMO weather interpretation code to a label.
func Describe(code int) string {
	switch {
	case code == 0:
		return "맑음"
	case code == 1:
		return "대체로 맑음"
	case code == 2:
		return "구름 조금"
	case code == 3:
		return "흐림"
	case code == 45 || code == 48:
		return "안개"
	case code >= 51 && code <= 55:
		return "이슬비"
	case code >= 61 && code <= 65:
		return "비"
	case code >= 66 && code <= 67:
		return "어는 비"
	case code >= 71 && code <= 77:
		return "눈"
	case code >= 80 && code <= 82:
		return "소나기"
	case code >= 85 && code <= 86:
		return "눈보라"
	case code >= 95:
		return "뇌우"
	default:
		return "정보 없음"
	}
}

// Client queries an Open-Meteo compatible forecast endpoint.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
	log     logger.Logger
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		url:     defaultURL,
		timeout: defaultTimeout,
		http:    http.DefaultClient,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns a one-line description of the weather at location, or
// "" when it cannot be determined.
func (c *Client) Current(ctx context.Context, location string) string {
	v := VenueFor(location)
	s, err := c.fetch(ctx, v)
	switch {
	case err != nil:
		metrics.RecordWeatherLookup("error")
		c.log.Warn(ctx, "weather lookup failed", logger.String("venue", v.Name), logger.Error(err))
		return ""
	case s == "":
		metrics.RecordWeatherLookup("empty")
		return ""
	default:
		metrics.RecordWeatherLookup("ok")
		return s
	}
}

func (c *Client) fetch(ctx context.Context, v Venue) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", v.Lat))
	q.Set("longitude", fmt.Sprintf("%.4f", v.Lng))
	q.Set("current", currentFields)
	q.Set("timezone", "Asia/Seoul")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("invalid json body")
	}

	cur := gjson.GetBytes(body, "current")
	if !cur.IsObject() {
		return "", nil
	}
	return fmt.Sprintf("%s 현재 날씨: %s, 기온 %s°C, 습도 %s%%, 풍속 %sm/s",
		v.Name,
		Describe(int(cur.Get("weather_code").Int())),
		cur.Get("temperature_2m").String(),
		cur.Get("relative_humidity_2m").String(),
		cur.Get("wind_speed_10m").String(),
	), nil
}
