package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	data := `longitude,latitude,presence,.geo
77.10,28.50,1,"{""type"":""Point""}"
77.11,28.51,0,
77.12,28.52,1.0,
`
	snap, err := Parse(strings.NewReader(data), "2023")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if snap.Year != "2023" {
		t.Fatalf("year %q", snap.Year)
	}
	if len(snap.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(snap.Points))
	}
	p := snap.Points[0]
	if p.Latitude != 28.50 || p.Longitude != 77.10 || p.Presence != 1 {
		t.Fatalf("unexpected first point %+v", p)
	}
	if p.Geo != `{"type":"Point"}` {
		t.Fatalf("unexpected geo %q", p.Geo)
	}
	if snap.Points[1].Presence != 0 {
		t.Fatalf("expected presence 0")
	}
	if snap.Points[2].Presence != 1 {
		t.Fatalf("expected float presence coerced to 1")
	}
}

func TestParseHeaderOrderIndependent(t *testing.T) {
	data := "presence,latitude,longitude\n1,1.5,2.5\n"
	snap, err := Parse(strings.NewReader(data), "2021")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if snap.Points[0].Latitude != 1.5 || snap.Points[0].Longitude != 2.5 {
		t.Fatalf("unexpected point %+v", snap.Points[0])
	}
}

func TestParseMissingColumn(t *testing.T) {
	data := "latitude,longitude\n1,2\n"
	if _, err := Parse(strings.NewReader(data), "2021"); err == nil {
		t.Fatalf("expected error for missing presence column")
	} else if !strings.Contains(err.Error(), "presence") {
		t.Fatalf("error should name the column: %v", err)
	}
}

func TestParseBadRow(t *testing.T) {
	data := "latitude,longitude,presence\n1,2,1\nnope,2,1\n"
	_, err := Parse(strings.NewReader(data), "2021")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Fatalf("error should carry the row number: %v", err)
	}
}

func writeCSV(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestRegistryLoadPair(t *testing.T) {
	dir := t.TempDir()
	base := writeCSV(t, dir, "base.csv", "latitude,longitude,presence\n1,2,0\n")
	cmp := writeCSV(t, dir, "cmp.csv", "latitude,longitude,presence\n1,2,1\n")

	reg, err := NewRegistry(Config{
		"SRM": {BaselineYear: "2021", ComparisonYear: "2023", BaselinePath: base, ComparisonPath: cmp},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	b, c, err := reg.LoadPair("SRM")
	if err != nil {
		t.Fatalf("load pair: %v", err)
	}
	if b.Year != "2021" || c.Year != "2023" {
		t.Fatalf("years %q %q", b.Year, c.Year)
	}
	if len(b.Points) != 1 || len(c.Points) != 1 {
		t.Fatalf("unexpected point counts")
	}
}

func TestRegistryUnknownSite(t *testing.T) {
	reg, err := NewRegistry(Config{
		"SRM": {BaselineYear: "2021", ComparisonYear: "2023", BaselinePath: "a", ComparisonPath: "b"},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	_, _, err = reg.LoadPair("Nowhere")
	if !errors.Is(err, ErrUnknownSite) {
		t.Fatalf("expected ErrUnknownSite, got %v", err)
	}
}

func TestRegistryValidation(t *testing.T) {
	if _, err := NewRegistry(nil); err == nil {
		t.Fatalf("expected error for empty config")
	}
	_, err := NewRegistry(Config{"SRM": {BaselineYear: "2021"}})
	if err == nil {
		t.Fatalf("expected error for incomplete site config")
	}
}
