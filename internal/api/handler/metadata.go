package handler

import (
	"net/http"

	"github.com/tempoair/airservice/internal/airquality"
	"github.com/tempoair/airservice/internal/api/mapper"
	"github.com/tempoair/airservice/internal/api/models"
	"github.com/tempoair/airservice/internal/api/response"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	thresholds models.Thresholds
}

// NewMetadataHandler creates a new MetadataHandler. The tables are static, so
// the payload is built once.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{thresholds: buildThresholds()}
}

// GetThresholds handles GET /v1/metadata/thresholds.
func (h *MetadataHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, h.thresholds)
}

func buildThresholds() models.Thresholds {
	t := models.Thresholds{
		Bands:      make([]models.BandInfo, 0, len(airquality.Bands)),
		Pollutants: make([]models.PollutantBreakpoints, 0, len(airquality.Pollutants)),
	}

	for i, b := range airquality.Bands {
		t.Bands = append(t.Bands, models.BandInfo{Name: b.String(), Rank: i, Score: b.Score()})
	}

	for _, p := range airquality.Pollutants {
		bp, ok := airquality.BreakpointsFor(p)
		if !ok {
			continue
		}
		unit := mapper.UnitMicrograms
		if p == airquality.PollutantAerosolIndex {
			unit = mapper.UnitAOD
		}
		t.Pollutants = append(t.Pollutants, models.PollutantBreakpoints{
			Parameter:   string(p),
			Unit:        unit,
			Breakpoints: append([]float64(nil), bp[:]...),
		})
	}
	return t
}
