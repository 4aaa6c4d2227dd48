package bcb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"B3Sentinel/internal/model"
)

// DateLayout is the day/month/year format used by SGS.
const DateLayout = "02/01/2006"

type sgsPoint struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

// History returns the observations of an SGS series between start and end.
func (c *Client) History(ctx context.Context, code int, start, end time.Time) ([]model.RateObservation, error) {
	source := fmt.Sprintf("bcb sgs %d", code)

	resp, err := c.sgs.R().
		SetContext(ctx).
		SetPathParam("code", strconv.Itoa(code)).
		SetQueryParams(map[string]string{
			"formato":     "json",
			"dataInicial": start.Format(DateLayout),
			"dataFinal":   end.Format(DateLayout),
		}).
		Get("/dados/serie/bcdata.sgs.{code}/dados")
	if err != nil {
		return nil, model.NewFetchError(source, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, model.NewFetchError(source, fmt.Errorf("status %d", resp.StatusCode()))
	}

	var points []sgsPoint
	if err := json.Unmarshal(resp.Body(), &points); err != nil {
		return nil, model.NewFetchError(source, fmt.Errorf("decode: %w", err))
	}
	obs, err := parseObservations(points)
	if err != nil {
		return nil, model.NewFetchError(source, err)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("series %d: %w", code, model.ErrEmptyResult)
	}

	c.log.Debug().Int("code", code).Int("observations", len(obs)).Msg("series fetched")
	return obs, nil
}

// parseObservations converts SGS points into date-ascending observations,
// keeping the last value of a repeated date.
func parseObservations(points []sgsPoint) ([]model.RateObservation, error) {
	byDate := make(map[time.Time]float32, len(points))
	for _, p := range points {
		d, err := time.Parse(DateLayout, strings.TrimSpace(p.Data))
		if err != nil {
			return nil, fmt.Errorf("date %q: %w", p.Data, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(p.Valor), 32)
		if err != nil {
			return nil, fmt.Errorf("value %q at %s: %w", p.Valor, p.Data, err)
		}
		byDate[d] = float32(v)
	}

	obs := make([]model.RateObservation, 0, len(byDate))
	for d, v := range byDate {
		obs = append(obs, model.RateObservation{Date: d, Value: v})
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	return obs, nil
}
