package domain

import (
	"strings"
	"time"
)

// Preset names a predefined analysis window.
type Preset string

const (
	PresetYTD            Preset = "ytd"
	Preset1Y             Preset = "1y"
	Preset3Y             Preset = "3y"
	PresetSinceInception Preset = "since_inception"
	PresetCustom         Preset = "custom"
)

var supportedPresets = []Preset{PresetYTD, Preset1Y, Preset3Y, PresetSinceInception, PresetCustom}

// ParsePreset normalizes a raw preset string, substituting the fallback when
// the value is empty. Unknown presets are a VALIDATION_ERROR.
func ParsePreset(raw string, fallback Preset) (Preset, error) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return fallback, nil
	}
	for _, p := range supportedPresets {
		if Preset(text) == p {
			return p, nil
		}
	}
	names := make([]string, len(supportedPresets))
	for i, p := range supportedPresets {
		names[i] = string(p)
	}
	return "", NewValidationError("unsupported preset: %s (expected one of %s)", text, strings.Join(names, ", "))
}

// ReturnRange is a resolved analysis window. Effective bounds may differ from
// requested bounds when no snapshot exists at the exact boundary.
type ReturnRange struct {
	Preset          Preset
	RequestedFrom   time.Time
	RequestedTo     time.Time
	EffectiveFrom   time.Time
	EffectiveTo     time.Time
	LatestAvailable time.Time
	IntervalDays    int64
}

// ResolveRange turns a preset plus optional explicit bounds into an effective
// window clamped to the available data span [earliest, latest].
//
// Error classification: malformed dates are VALIDATION_ERROR; a window that
// cannot overlap the available data is NO_DATA_ERROR; explicitly inverted
// custom bounds are INVALID_RANGE_ERROR.
func ResolveRange(preset Preset, fromRaw, toRaw string, earliest, latest time.Time) (*ReturnRange, error) {
	if latest.Before(earliest) {
		return nil, NewNoDataError("no usable date range available")
	}

	toGiven := strings.TrimSpace(toRaw) != ""
	requestedTo := latest
	if toGiven {
		parsed, err := ParseISODate(toRaw, "to")
		if err != nil {
			return nil, err
		}
		requestedTo = parsed
	}
	effectiveTo := requestedTo
	if latest.Before(requestedTo) {
		effectiveTo = latest
	}
	if effectiveTo.Before(earliest) {
		return nil, NewNoDataError("requested end date precedes the earliest available snapshot")
	}

	var requestedFrom time.Time
	switch preset {
	case PresetCustom:
		parsed, err := ParseISODate(fromRaw, "from")
		if err != nil {
			return nil, err
		}
		requestedFrom = parsed
	case PresetYTD:
		requestedFrom = Date(effectiveTo.Year(), time.January, 1)
	case Preset1Y:
		requestedFrom = effectiveTo.AddDate(0, 0, -365)
	case Preset3Y:
		requestedFrom = effectiveTo.AddDate(0, 0, -365*3)
	case PresetSinceInception:
		requestedFrom = earliest
	default:
		return nil, NewValidationError("unsupported preset: %s", preset)
	}

	effectiveFrom := requestedFrom
	if requestedFrom.Before(earliest) {
		effectiveFrom = earliest
	}
	if effectiveFrom.After(effectiveTo) {
		if preset == PresetCustom && toGiven && requestedFrom.After(requestedTo) {
			return nil, NewInvalidRangeError("from must not be later than to")
		}
		return nil, NewNoDataError("no snapshot data within the requested range")
	}

	return &ReturnRange{
		Preset:          preset,
		RequestedFrom:   requestedFrom,
		RequestedTo:     requestedTo,
		EffectiveFrom:   effectiveFrom,
		EffectiveTo:     effectiveTo,
		LatestAvailable: latest,
	}, nil
}
