package bcb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"B3Sentinel/internal/model"
)

// CDISpread is subtracted from the Selic expectation to estimate CDI.
const CDISpread = 0.1

const expectationsPath = "/olinda/servico/Expectativas/versao/v1/odata/ExpectativasMercadoTop5Anuais"

type expectationsResponse struct {
	Value []struct {
		Indicador          string  `json:"Indicador"`
		Data               string  `json:"Data"`
		DataReferencia     string  `json:"DataReferencia"`
		TipoCalculo        string  `json:"tipoCalculo"`
		Media              float64 `json:"Media"`
		Mediana            float64 `json:"Mediana"`
		DesvioPadrao       float64 `json:"DesvioPadrao"`
		Minimo             float64 `json:"Minimo"`
		Maximo             float64 `json:"Maximo"`
		NumeroRespondentes int     `json:"numeroRespondentes"`
	} `json:"value"`
}

// Expectations returns the five most recent Top5 annual expectations of an
// indicator for a calculation horizon, ordered by reference year.
func (c *Client) Expectations(ctx context.Context, indicator model.Indicator, horizon model.Horizon) ([]model.ExpectationRecord, error) {
	if _, err := model.ParseHorizon(string(horizon)); err != nil {
		return nil, err
	}

	resp, err := c.olinda.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"$top":     "5",
			"$filter":  fmt.Sprintf("Indicador eq '%s' and tipoCalculo eq '%s'", indicator, horizon),
			"$orderby": "Data desc",
			"$format":  "json",
		}).
		Get(expectationsPath)
	if err != nil {
		return nil, model.NewFetchError("bcb expectations", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, model.NewFetchError("bcb expectations", fmt.Errorf("status %d", resp.StatusCode()))
	}

	var body expectationsResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, model.NewFetchError("bcb expectations", fmt.Errorf("decode: %w", err))
	}
	if len(body.Value) == 0 {
		return nil, fmt.Errorf("expectations for %s/%s: %w", indicator, horizon, model.ErrEmptyResult)
	}

	records := make([]model.ExpectationRecord, 0, len(body.Value))
	for _, v := range body.Value {
		year, err := strconv.Atoi(v.DataReferencia)
		if err != nil {
			return nil, model.NewFetchError("bcb expectations", fmt.Errorf("reference year %q: %w", v.DataReferencia, err))
		}
		records = append(records, model.ExpectationRecord{
			Indicator:     model.Indicator(v.Indicador),
			Date:          v.Data,
			ReferenceYear: year,
			Horizon:       model.Horizon(v.TipoCalculo),
			Mean:          v.Media,
			Median:        v.Mediana,
			StdDev:        v.DesvioPadrao,
			Min:           v.Minimo,
			Max:           v.Maximo,
			Respondents:   v.NumeroRespondentes,
		})
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].ReferenceYear < records[j].ReferenceYear })

	c.log.Debug().Str("indicator", string(indicator)).Str("horizon", string(horizon)).Int("records", len(records)).Msg("expectations fetched")
	return records, nil
}

// DeriveCDI estimates CDI expectations from Selic expectations.
func DeriveCDI(selic []model.ExpectationRecord) []model.ExpectationRecord {
	out := make([]model.ExpectationRecord, len(selic))
	for i, r := range selic {
		r.Indicator = model.CDI
		r.Mean -= CDISpread
		out[i] = r
	}
	return out
}
