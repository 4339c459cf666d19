// Package meteo implements the weather provider against the Open-Meteo
// archive and forecast APIs.
package meteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gridscope/gridscope/core/logger"
	"github.com/gridscope/gridscope/core/model"
	"github.com/gridscope/gridscope/core/weather"
	infralogger "github.com/gridscope/gridscope/infra/logger"
)

const dailyVariables = "shortwave_radiation_sum,temperature_2m_max,cloud_cover_mean"

// Client fetches daily weather series from Open-Meteo. Historical windows go
// to the archive endpoint, forecast windows to the forecast endpoint.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

var _ weather.Provider = (*Client)(nil)

// New builds a Client.
func New(cfg Config, log logger.Logger) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("meteo: %w", err)
	}
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:  log,
	}, nil
}

// Fetch retrieves the series for req. Missing days and null values come back
// as gap samples; transport failures and upstream 5xx map to
// model.ErrUpstreamUnavailable.
func (c *Client) Fetch(ctx context.Context, req weather.Request) (model.WeatherSeries, error) {
	if err := req.Validate(); err != nil {
		return model.WeatherSeries{}, model.NewInputValidationError("weather.fetch", err)
	}
	endpoint, err := c.requestURL(req)
	if err != nil {
		return model.WeatherSeries{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.WeatherSeries{}, fmt.Errorf("meteo: build request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return model.WeatherSeries{}, fmt.Errorf("meteo: %v: %w", err, model.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return model.WeatherSeries{}, fmt.Errorf("meteo: upstream status %d: %w", resp.StatusCode, model.ErrUpstreamUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.WeatherSeries{}, fmt.Errorf("meteo: upstream status %d: %s", resp.StatusCode, body)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.WeatherSeries{}, fmt.Errorf("meteo: decode response: %w", err)
	}
	series := c.series(req, payload)
	c.log.Debugw("weather window fetched", map[string]any{
		"territory": req.TerritoryID,
		"kind":      req.Kind.String(),
		"days":      len(series.Samples),
		"gaps":      len(series.Gaps()),
	})
	return series, nil
}

func (c *Client) requestURL(req weather.Request) (string, error) {
	base := c.cfg.ArchiveURL
	if req.Kind == model.WindowForecast {
		base = c.cfg.ForecastURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("meteo: parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(req.Lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(req.Lon, 'f', -1, 64))
	q.Set("start_date", req.Start.UTC().Format(time.DateOnly))
	q.Set("end_date", req.End.UTC().Format(time.DateOnly))
	q.Set("daily", dailyVariables)
	q.Set("timezone", "UTC")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type openMeteoResponse struct {
	Daily struct {
		Time           []string   `json:"time"`
		Radiation      []*float64 `json:"shortwave_radiation_sum"`
		TemperatureMax []*float64 `json:"temperature_2m_max"`
		CloudCover     []*float64 `json:"cloud_cover_mean"`
	} `json:"daily"`
}

type dayValues struct {
	radiation *float64
	tempMax   *float64
	cloud     *float64
}

// series maps the response onto the requested window. Every requested day
// yields exactly one sample; days the upstream skipped or nulled become gaps.
// Radiation arrives as MJ/m² and is converted to kWh/m².
func (c *Client) series(req weather.Request, payload openMeteoResponse) model.WeatherSeries {
	byDate := make(map[string]dayValues, len(payload.Daily.Time))
	for i, date := range payload.Daily.Time {
		v := dayValues{}
		if i < len(payload.Daily.Radiation) {
			v.radiation = payload.Daily.Radiation[i]
		}
		if i < len(payload.Daily.TemperatureMax) {
			v.tempMax = payload.Daily.TemperatureMax[i]
		}
		if i < len(payload.Daily.CloudCover) {
			v.cloud = payload.Daily.CloudCover[i]
		}
		byDate[date] = v
	}

	start := req.Start.UTC().Truncate(24 * time.Hour)
	series := model.WeatherSeries{
		TerritoryID: req.TerritoryID,
		Kind:        req.Kind,
		Lon:         req.Lon,
		Lat:         req.Lat,
		Samples:     make([]model.WeatherSample, 0, req.Days()),
	}
	for i := 0; i < req.Days(); i++ {
		date := start.Add(time.Duration(i) * 24 * time.Hour)
		v, ok := byDate[date.Format(time.DateOnly)]
		if !ok || v.radiation == nil || v.tempMax == nil || v.cloud == nil {
			series.Samples = append(series.Samples, model.WeatherSample{Time: date, Gap: true})
			continue
		}
		series.Samples = append(series.Samples, model.WeatherSample{
			Time:            date,
			IrradianceKWhM2: *v.radiation / 3.6,
			TemperatureC:    *v.tempMax,
			CloudCoverPct:   *v.cloud,
		})
	}
	return series
}
