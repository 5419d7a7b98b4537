package openxla

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseOptions(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		for _, data := range []string{"", "{}"} {
			opts, err := ParseOptions([]byte(data))
			if err != nil {
				t.Fatalf("ParseOptions(%q): %v", data, err)
			}
			if !reflect.DeepEqual(opts, DefaultOptions()) {
				t.Errorf("ParseOptions(%q) = %+v, want defaults", data, opts)
			}
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		opts, err := ParseOptions([]byte(`
executable_source: kernels
max_rewrites: 1000
illegal_dialects: [lmhlo, memref, mystery]
`))
		if err != nil {
			t.Fatalf("ParseOptions: %v", err)
		}
		want := Options{
			ExecutableSource: "kernels",
			Visibility:       "private",
			MaxRewrites:      1000,
			IllegalDialects:  []string{"lmhlo", "memref", "mystery"},
		}
		if !reflect.DeepEqual(opts, want) {
			t.Errorf("ParseOptions() = %+v, want %+v", opts, want)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name, data, want string
		}{
			{"UnknownField", "executable: x\n", "field executable not found"},
			{"Syntax", "visibility: [\n", "failed to parse"},
			{"Visibility", "visibility: secret\n", "invalid visibility"},
			{"EmptySource", "executable_source: \"\"\n", "executable_source cannot be empty"},
			{"NegativeLimit", "max_rewrites: -1\n", "max_rewrites must be >= 0"},
			{"NoDialects", "illegal_dialects: []\n", "illegal_dialects cannot be empty"},
			{"LegalDialect", "illegal_dialects: [lmhlo, scf]\n", `dialect "scf" is produced by the conversion`},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := ParseOptions([]byte(tc.data))
				if err == nil || !strings.Contains(err.Error(), tc.want) {
					t.Fatalf("ParseOptions(%q) = %v, want error containing %q", tc.data, err, tc.want)
				}
			})
		}
	})
}

func TestNew(t *testing.T) {
	p, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !reflect.DeepEqual(p.Options(), DefaultOptions()) {
		t.Errorf("Options() = %+v", p.Options())
	}
	if _, err := New(Options{}); err == nil {
		t.Fatal("New should reject invalid options")
	}
}
