// Package model provides ModelPort adapters: artifact-backed and simulated
// models, a remote inference client, and decorators for switching and metrics.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tempoair/airservice/internal/airquality"
)

// Raw output keys emitted by trained and simulated models.
const (
	KeyNitrogenDioxide   = "Dioxido_de_nitrogeno"
	KeyFormaldehyde      = "Formaldehido"
	KeyAerosolIndex      = "Indice_de_aerosol"
	KeyParticulateMatter = "Material_particulado"
)

// OutputKeys lists the keys every raw output must carry.
var OutputKeys = []string{
	KeyNitrogenDioxide,
	KeyFormaldehyde,
	KeyAerosolIndex,
	KeyParticulateMatter,
}

// RawOutput is a model's uninterpreted output for one location.
type RawOutput map[string]any

// DecodeRaw interprets a raw model output as a Prediction.
// Anything that is not an object with four numeric fields yields ErrModelOutput.
func DecodeRaw(raw any) (*airquality.Prediction, error) {
	var fields map[string]any
	switch v := raw.(type) {
	case RawOutput:
		fields = v
	case map[string]any:
		fields = v
	default:
		return nil, fmt.Errorf("%w: expected object, got %T", airquality.ErrModelOutput, raw)
	}

	values := make(map[string]float64, len(OutputKeys))
	for _, key := range OutputKeys {
		v, ok := fields[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", airquality.ErrModelOutput, key)
		}
		f, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", airquality.ErrModelOutput, key, err)
		}
		values[key] = f
	}

	return &airquality.Prediction{
		NitrogenDioxide:   values[KeyNitrogenDioxide],
		Formaldehyde:      values[KeyFormaldehyde],
		AerosolIndex:      values[KeyAerosolIndex],
		ParticulateMatter: values[KeyParticulateMatter],
	}, nil
}

// DecodeRawJSON decodes a JSON document and interprets it as a Prediction.
func DecodeRawJSON(data []byte) (*airquality.Prediction, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", airquality.ErrModelOutput, err)
	}
	return DecodeRaw(raw)
}

// toFloat coerces numbers and numeric strings, the way the trained models'
// outputs have always been read.
func toFloat(v any) (float64, error) {
	f, err := parseNumber(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", v)
	}
	return f, nil
}

func parseNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
