package tabular

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"surveyweight/domain/core"
	"surveyweight/domain/survey"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp CSV: %v", err)
	}
	return path
}

func TestReadFrame_CSV(t *testing.T) {
	path := writeTempCSV(t, "respond,age,income\n1,34,51000\n0,58,\n1,41,47250.5\n")

	frame, err := NewFrameReader(path).ReadFrame(context.Background())
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	if frame.RowCount() != 3 || frame.ColumnCount() != 3 {
		t.Fatalf("frame is %dx%d, want 3x3", frame.RowCount(), frame.ColumnCount())
	}

	st, err := frame.Type(core.VariableKey("respond"))
	if err != nil {
		t.Fatalf("Type failed: %v", err)
	}
	if st != survey.TypeBinary {
		t.Errorf("respond column type = %s, want binary", st)
	}

	income, err := frame.Column(core.VariableKey("income"))
	if err != nil {
		t.Fatalf("Column failed: %v", err)
	}
	if !math.IsNaN(income[1]) {
		t.Errorf("income[1] = %f, want NaN for the blank cell", income[1])
	}
	if income[2] != 47250.5 {
		t.Errorf("income[2] = %f, want 47250.5", income[2])
	}

	// The respondent indicator follows the outcome's NaN pattern too.
	resp, err := frame.ResponseIndicator(core.VariableKey("income"))
	if err != nil {
		t.Fatalf("ResponseIndicator failed: %v", err)
	}
	want := []bool{true, false, true}
	for i := range want {
		if resp[i] != want[i] {
			t.Errorf("resp[%d] = %v, want %v", i, resp[i], want[i])
		}
	}
}

func TestReadFrame_MissingTokens(t *testing.T) {
	path := writeTempCSV(t, "x\n1.5\nNA\nnan\n.\n2.5\n")

	frame, err := NewFrameReader(path).ReadFrame(context.Background())
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	x, _ := frame.Column(core.VariableKey("x"))
	missing := 0
	for _, v := range x {
		if math.IsNaN(v) {
			missing++
		}
	}
	if missing != 3 {
		t.Errorf("missing count = %d, want 3", missing)
	}
}

func TestReadFrame_HeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "a,b\n")

	_, err := NewFrameReader(path).ReadFrame(context.Background())
	if err == nil {
		t.Fatal("header-only file accepted")
	}
}

func TestReadFrame_FileMissing(t *testing.T) {
	_, err := NewFrameReader(filepath.Join(t.TempDir(), "absent.csv")).ReadFrame(context.Background())
	if err == nil {
		t.Fatal("missing file accepted")
	}
}
