package domain

import (
	"encoding/json"
	"fmt"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry es la unión etiquetada que viaja en las anotaciones:
// {"type":"polygon","points":[...]} o {"type":"bbox","start":{},"end":{}}.
type Geometry struct {
	Type   string  `json:"type"`
	Points []Point `json:"points,omitempty"`
	Start  *Point  `json:"start,omitempty"`
	End    *Point  `json:"end,omitempty"`
}

// ParseGeometry decodifica y valida la unión. La anotación persiste el
// documento crudo; esto sólo garantiza que tenga una forma conocida.
func ParseGeometry(raw []byte) (*Geometry, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("geometry is required")
	}
	var g Geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	switch g.Type {
	case "polygon":
		if len(g.Points) < 3 {
			return nil, fmt.Errorf("polygon needs at least 3 points")
		}
	case "bbox":
		if g.Start == nil || g.End == nil {
			return nil, fmt.Errorf("bbox needs start and end")
		}
	default:
		return nil, fmt.Errorf("unknown geometry type %q", g.Type)
	}
	return &g, nil
}
