package deps

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	apperr "github.com/matzehuels/sourcedeps/pkg/errors"
	"github.com/matzehuels/sourcedeps/pkg/scan"
)

func names(records []Dependency) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Name+"@"+r.Version)
	}
	return out
}

func TestParseBytes_EmbeddedWinsOverStructured(t *testing.T) {
	// Valid JSON whose embedded object also satisfies the JSON and regex
	// strategies; only embedded records may come back.
	src := `{
  "dependencies": {
    "depVersions": {"react": "18.2.0", "lodash": "4.17.21"},
    "depPaths": {"react": "/r"},
    "baseUrl": "https://static.example.com"
  },
  "other": {"dependencies": {"left-pad": "1.3.0"}}
}`
	records, strategy := NewParser(Options{}).ParseBytes([]byte(src))
	if strategy != StrategyEmbedded {
		t.Fatalf("strategy = %q, want %q", strategy, StrategyEmbedded)
	}
	want := []Dependency{
		{Name: "react", Version: "18.2.0", PathPrefix: "/r", BaseURL: "https://static.example.com", Strategy: StrategyEmbedded},
		{Name: "lodash", Version: "4.17.21", BaseURL: "https://static.example.com", Strategy: StrategyEmbedded},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %+v, want %+v", records, want)
	}
}

func TestParseBytes_StructuredJSON(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "plain",
			src:  `{"dependencies": {"left-pad": "1.3.0"}}`,
			want: []string{"left-pad@1.3.0"},
		},
		{
			name: "document order and numbers",
			src:  `{"dependencies": {"zeta": "1.0.0", "alpha": 2, "mid": "~3.1.0"}}`,
			want: []string{"zeta@1.0.0", "alpha@2", "mid@~3.1.0"},
		},
		{
			name: "jsonc comments and trailing comma",
			src: `{
				// runtime deps
				"dependencies": {"a": "1.0.0", /* pinned */ "b": "2.0.0",},
			}`,
			want: []string{"a@1.0.0", "b@2.0.0"},
		},
		{
			name: "lockfile entries",
			src:  `{"dependencies": {"x": {"version": "1.2.3", "resolved": "..."}, "y": {"requires": {}}}}`,
			want: []string{"x@1.2.3"},
		},
		{
			name: "invalid entries dropped",
			src:  `{"dependencies": {"a": "", " b ": " 1.0.0 ", "bad name": "1.0.0", "../x": "1.0.0"}}`,
			want: []string{"b@1.0.0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, strategy := NewParser(Options{}).ParseBytes([]byte(tt.src))
			if strategy != StrategyJSON {
				t.Fatalf("strategy = %q, want %q", strategy, StrategyJSON)
			}
			if got := names(records); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("records = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseBytes_StructuredYAML(t *testing.T) {
	src := `name: app
dependencies:
  http: ^1.1.0
  provider:
    version: 6.0.5
  flutter:
    sdk: flutter
  empty:
`
	records, strategy := NewParser(Options{}).ParseBytes([]byte(src))
	if strategy != StrategyYAML {
		t.Fatalf("strategy = %q, want %q", strategy, StrategyYAML)
	}
	want := []string{"http@^1.1.0", "provider@6.0.5"}
	if got := names(records); !reflect.DeepEqual(got, want) {
		t.Errorf("records = %v, want %v", got, want)
	}
}

func TestParseBytes_TextualRegex(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "dependency block in script",
			src: `var cfg = makeConfig({ "version": "9.9.9",
				depVersions: { "jquery": "3.6.0", 'moment': '2.29.4', "jquery": "1.0.0" } + extra });`,
			want: []string{"jquery@3.6.0", "moment@2.29.4"},
		},
		{
			name: "loose pairs",
			src:  `x = f("name", {"name": "app", "version": "1.0.0", "vue": "^3.4.0", "title": "hello"})`,
			want: []string{"vue@^3.4.0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, strategy := NewParser(Options{}).ParseBytes([]byte(tt.src))
			if strategy != StrategyRegex {
				t.Fatalf("strategy = %q, want %q", strategy, StrategyRegex)
			}
			if got := names(records); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("records = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseBytes_NothingFound(t *testing.T) {
	records, strategy := NewParser(Options{}).ParseBytes([]byte("console.log('hello')\n"))
	if len(records) != 0 || strategy != "" {
		t.Errorf("ParseBytes = %v, %q; want nothing", records, strategy)
	}
}

func TestParser_PanickingStrategy(t *testing.T) {
	p := NewParser(Options{})
	p.strategies = append([]strategy{{
		name:    StrategyEmbedded,
		extract: func([]byte) []Dependency { panic("boom") },
	}}, p.strategies[1:]...)

	records, strategy := p.ParseBytes([]byte(`{"dependencies": {"a": "1.0.0"}}`))
	if strategy != StrategyJSON || len(records) != 1 {
		t.Errorf("ParseBytes = %v, %q; want one structured-json record", records, strategy)
	}
}

func TestParser_Parse(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "package.json")
	empty := filepath.Join(dir, "notes.js")
	if err := os.WriteFile(good, []byte(`{"dependencies": {"left-pad": "1.3.0"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(empty, []byte("require('x')"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewParser(Options{})

	records, strategy, err := p.Parse(scan.Candidate{Path: good, Reason: scan.ReasonFilename})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strategy != StrategyJSON || len(records) != 1 || records[0].Strategy != StrategyJSON {
		t.Errorf("Parse = %+v, %q", records, strategy)
	}

	_, _, err = p.Parse(scan.Candidate{Path: empty, Reason: scan.ReasonContent})
	if !apperr.Is(err, apperr.ErrCodeParseExhausted) {
		t.Errorf("Parse(no records) error = %v, want PARSE_EXHAUSTED", err)
	}

	_, _, err = p.Parse(scan.Candidate{Path: filepath.Join(dir, "missing.json")})
	if !apperr.Is(err, apperr.ErrCodeScanRead) {
		t.Errorf("Parse(missing) error = %v, want SCAN_READ", err)
	}
}

func TestParser_StableAcrossRuns(t *testing.T) {
	src := []byte(`dependencies = { depVersions: { a: "1.0.0", b: "2.0.0" } }`)
	p := NewParser(Options{})
	first, _ := p.ParseBytes(src)
	second, _ := p.ParseBytes(src)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ: %v vs %v", first, second)
	}
}

func TestDependency_FileName(t *testing.T) {
	tests := []struct {
		dep  Dependency
		want string
	}{
		{Dependency{Name: "left-pad", Version: "1.3.0"}, "left-pad@1.3.0.js"},
		{Dependency{Name: "@scope/pkg", Version: "2.0.0"}, "@scope_pkg@2.0.0.js"},
		{Dependency{Name: "a/b/c", Version: "1"}, "a_b_c@1.js"},
	}
	for _, tt := range tests {
		if got := tt.dep.FileName(); got != tt.want {
			t.Errorf("FileName(%v) = %q, want %q", tt.dep, got, tt.want)
		}
	}
}
