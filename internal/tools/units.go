package tools

import (
	"math"
	"sort"
	"strings"

	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

// DefaultUnits is the measurement unit of a new document.
const DefaultUnits = "mm"

// maxPagePoints is the largest page edge the host accepts (216 in).
const maxPagePoints = 15552

// pointsPerUnit converts document units to PostScript points.
var pointsPerUnit = map[string]float64{
	"mm":   72 / 25.4,
	"cm":   72 / 2.54,
	"in":   72,
	"pt":   1,
	"pica": 12,
	"px":   1,
}

func unitNames() []string {
	names := make([]string, 0, len(pointsPerUnit))
	for name := range pointsPerUnit {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseUnits(u string) (string, error) {
	u = strings.ToLower(strings.TrimSpace(u))
	if u == "" {
		return DefaultUnits, nil
	}
	if _, ok := pointsPerUnit[u]; !ok {
		return "", toolresult.Validationf("units", "must be one of %s, got %q", strings.Join(unitNames(), ", "), u)
	}
	return u, nil
}

// toPoints converts v from units to points. Unknown units are treated as
// points; callers validate units on entry.
func toPoints(v float64, units string) float64 {
	if f, ok := pointsPerUnit[units]; ok {
		return v * f
	}
	return v
}

// fromPoints converts v points to units, rounded to three decimals.
func fromPoints(v float64, units string) float64 {
	f, ok := pointsPerUnit[units]
	if !ok {
		f = 1
	}
	return math.Round(v/f*1000) / 1000
}
