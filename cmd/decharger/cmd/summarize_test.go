package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	input := "id,mz,rt,intensity,charge\n" +
		"f1,501.0073,10.0,1000,1\n" +
		"f2,251.0073,10.1,400,2\n" +
		"f3,301.5000,12.5,50,\n" +
		"f1,401.0000,13.0,20,1\n" +
		"bad,-5,1,1,1\n"

	var out bytes.Buffer
	if err := summarize(strings.NewReader(input), &out); err != nil {
		t.Fatalf("summarize() error = %v", err)
	}

	for _, want := range []string{
		"Features: 5\n",
		"Invalid: 1\n",
		"Duplicate IDs: 1\n",
		"m/z: 251.0073 - 501.0073\n",
		"RT: 10.000 - 13.000\n",
		"  unknown  1\n",
		"  1        2\n",
		"  2        1\n",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestSummarizeReadError(t *testing.T) {
	var out bytes.Buffer
	err := summarize(strings.NewReader("id,mz\nf1,100\n"), &out)
	if err == nil || !strings.Contains(err.Error(), "missing column") {
		t.Errorf("summarize() error = %v, want missing column", err)
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "adducts.yaml")
	if err := os.WriteFile(yamlPath, []byte("adducts:\n  - \"H:+:0.7\"\n  - \"Na:+:0.3\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	txtPath := filepath.Join(dir, "adducts.txt")
	if err := os.WriteFile(txtPath, []byte("H:+:1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		file     string
		adducts  []string
		negative bool
		wantLen  int
		wantErr  string
	}{
		{name: "default positive", wantLen: 5},
		{name: "default negative", negative: true, wantLen: 4},
		{name: "command line", adducts: []string{"H:+:0.5", "K:+:0.5"}, wantLen: 2},
		{name: "yaml file", file: yamlPath, wantLen: 2},
		{name: "unknown extension", file: txtPath, wantErr: "cannot detect catalog format"},
		{name: "both sources", file: yamlPath, adducts: []string{"H:+:1"}, wantErr: "cannot be combined"},
		{name: "bad probabilities", adducts: []string{"H:+:0.5"}, wantErr: "sum to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalogFile, adducts = tt.file, tt.adducts
			defer func() { catalogFile, adducts = "", nil }()

			cat, _, err := loadCatalog(tt.negative)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("loadCatalog() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("loadCatalog() error = %v", err)
			}
			if cat.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", cat.Len(), tt.wantLen)
			}
		})
	}
}
