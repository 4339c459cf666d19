package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gridscope/gridscope/core/model"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario files found")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestParseRecordKind(t *testing.T) {
	if parseRecordKind("generation") != model.RecordGeneration {
		t.Error("generation parsed wrong")
	}
	if parseRecordKind("consumer") != model.RecordConsumer {
		t.Error("consumer parsed wrong")
	}
	if parseRecordKind("") != model.RecordConsumer {
		t.Error("empty kind should default to consumer")
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	tmp, err := os.CreateTemp(t.TempDir(), "bad*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.WriteString(":"); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmp.Name()); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestBoundaryDefToModel(t *testing.T) {
	b := BoundaryDef{Name: "sq", Ring: [][2]float64{{0, 0}, {4, 0}, {4, 4}, {0, 4}}}
	m := b.ToModel()
	if m.Name != "sq" {
		t.Fatalf("unexpected name %s", m.Name)
	}
	if got := m.Geometry.Area(); got != 16 {
		t.Fatalf("expected area 16, got %v", got)
	}
}
