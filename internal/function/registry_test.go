package function

import (
	"strings"
	"testing"

	"mp-proxy-go/internal/config"
)

func TestNewRegistry_Builtins(t *testing.T) {
	r, err := NewRegistry(&config.Config{})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(all))
	}
	if all[0] != DraftAdd {
		t.Errorf("All()[0] = %+v, want %+v", all[0], DraftAdd)
	}
	if all[1] != Token {
		t.Errorf("All()[1] = %+v, want %+v", all[1], Token)
	}
	if !DraftAdd.ForwardBody || Token.ForwardBody {
		t.Error("only draft-add should forward the request body")
	}
}

func TestNewRegistry_ConfiguredFunctions(t *testing.T) {
	cfg := &config.Config{
		Functions: []config.FunctionConfig{
			{Name: "draft-get", Method: "post", Path: "/cgi-bin/draft/get", ForwardBody: true},
			{Name: "ticket", Method: "GET", Path: "/cgi-bin/ticket/getticket"},
		},
	}

	r, err := NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if len(r.All()) != 4 {
		t.Fatalf("len(All()) = %d, want 4", len(r.All()))
	}

	fn, ok := r.Lookup("POST", "/cgi-bin/draft/get")
	if !ok {
		t.Fatal("Lookup(POST /cgi-bin/draft/get) not found; method should be upper-cased")
	}
	if fn.Name != "draft-get" || !fn.ForwardBody {
		t.Errorf("Lookup() = %+v, want draft-get with forward_body", fn)
	}
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		functions []config.FunctionConfig
		metrics   bool
		wantErr   string
	}{
		{
			name:      "missing name",
			functions: []config.FunctionConfig{{Method: "GET", Path: "/x"}},
			wantErr:   "functions[0]",
		},
		{
			name:      "unsupported method",
			functions: []config.FunctionConfig{{Name: "x", Method: "TRACE", Path: "/x"}},
			wantErr:   "functions[0]",
		},
		{
			name:      "relative path",
			functions: []config.FunctionConfig{{Name: "x", Method: "GET", Path: "x"}},
			wantErr:   "functions[0]",
		},
		{
			name:      "duplicate name",
			functions: []config.FunctionConfig{{Name: "token", Method: "GET", Path: "/other"}},
			wantErr:   "more than once",
		},
		{
			name:      "duplicate route",
			functions: []config.FunctionConfig{{Name: "token2", Method: "get", Path: "/cgi-bin/token"}},
			wantErr:   "more than once",
		},
		{
			name:      "trailing slash",
			functions: []config.FunctionConfig{{Name: "draft-get", Method: "POST", Path: "/cgi-bin/draft/get/"}},
			wantErr:   "must not end with a slash",
		},
		{
			name:      "route parameter",
			functions: []config.FunctionConfig{{Name: "user", Method: "GET", Path: "/cgi-bin/user/:id"}},
			wantErr:   "excludesall",
		},
		{
			name:      "wildcard",
			functions: []config.FunctionConfig{{Name: "any", Method: "GET", Path: "/cgi-bin/*"}},
			wantErr:   "excludesall",
		},
		{
			name:      "query in path",
			functions: []config.FunctionConfig{{Name: "q", Method: "GET", Path: "/cgi-bin/menu/get?x=1"}},
			wantErr:   "excludesall",
		},
		{
			name:      "fragment in path",
			functions: []config.FunctionConfig{{Name: "f", Method: "GET", Path: "/cgi-bin/menu/get#top"}},
			wantErr:   "excludesall",
		},
		{
			name:      "reserved healthz",
			functions: []config.FunctionConfig{{Name: "h", Method: "GET", Path: "/healthz"}},
			wantErr:   "reserved",
		},
		{
			name:      "reserved metrics",
			functions: []config.FunctionConfig{{Name: "m", Method: "GET", Path: "/metrics"}},
			metrics:   true,
			wantErr:   "reserved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Functions: tt.functions}
			if tt.metrics {
				cfg.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}
			}
			_, err := NewRegistry(cfg)
			if err == nil {
				t.Fatal("NewRegistry() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r, err := NewRegistry(&config.Config{})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"POST", "/cgi-bin/draft/add", "draft-add"},
		{"POST", "/cgi-bin/draft/add/", "draft-add"},
		{"GET", "/cgi-bin/token", "token"},
		{"GET", "/cgi-bin/draft/add", ""},
		{"POST", "/cgi-bin/token", ""},
		{"GET", "/cgi-bin/token/extra", ""},
		{"GET", "/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			fn, ok := r.Lookup(tt.method, tt.path)
			if tt.want == "" {
				if ok {
					t.Errorf("Lookup() = %+v, want no match", fn)
				}
				return
			}
			if !ok {
				t.Fatalf("Lookup() found nothing, want %q", tt.want)
			}
			if fn.Name != tt.want {
				t.Errorf("Lookup().Name = %q, want %q", fn.Name, tt.want)
			}
		})
	}
}

func TestRegistry_Paths(t *testing.T) {
	cfg := &config.Config{
		Functions: []config.FunctionConfig{
			{Name: "token-post", Method: "POST", Path: "/cgi-bin/token"},
		},
	}
	r, err := NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	paths := r.Paths()
	if len(paths) != 2 {
		t.Fatalf("Paths() = %v, want 2 distinct paths", paths)
	}
	if paths[0] != "/cgi-bin/draft/add" || paths[1] != "/cgi-bin/token" {
		t.Errorf("Paths() = %v, want [/cgi-bin/draft/add /cgi-bin/token]", paths)
	}
}
