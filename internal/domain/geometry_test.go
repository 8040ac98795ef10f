package domain

import "testing"

func TestParseGeometry_Polygon(t *testing.T) {
	raw := []byte(`{"type":"polygon","points":[{"x":0,"y":0},{"x":10,"y":0},{"x":5,"y":8}]}`)
	g, err := ParseGeometry(raw)
	if err != nil {
		t.Fatalf("ParseGeometry err: %v", err)
	}
	if g.Type != "polygon" || len(g.Points) != 3 {
		t.Fatalf("unexpected geometry: %+v", g)
	}
}

func TestParseGeometry_BBox(t *testing.T) {
	raw := []byte(`{"type":"bbox","start":{"x":1,"y":2},"end":{"x":30,"y":40}}`)
	g, err := ParseGeometry(raw)
	if err != nil {
		t.Fatalf("ParseGeometry err: %v", err)
	}
	if g.Start == nil || g.End == nil {
		t.Fatalf("bbox sin extremos: %+v", g)
	}
	if g.End.X != 30 || g.End.Y != 40 {
		t.Fatalf("end mismatch: %+v", g.End)
	}
}

func TestParseGeometry_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"bad json", `{"type":`},
		{"unknown type", `{"type":"circle"}`},
		{"polygon two points", `{"type":"polygon","points":[{"x":0,"y":0},{"x":1,"y":1}]}`},
		{"bbox missing end", `{"type":"bbox","start":{"x":1,"y":2}}`},
	}
	for _, c := range cases {
		if _, err := ParseGeometry([]byte(c.raw)); err == nil {
			t.Fatalf("%s: expected error, got nil", c.name)
		}
	}
}
