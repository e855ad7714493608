package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/retry"
)

type fakeGitHub struct {
	treeEntries string
	putStatus   int
	puts        []contentsRequest
	authHeaders []string
}

func (f *fakeGitHub) handler(t *testing.T, serverURL *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/deploy/branches/main":
			fmt.Fprintf(w, `{"commit":{"commit":{"tree":{"url":"%s/trees/abc"}}}}`, *serverURL)
		case r.Method == http.MethodGet && r.URL.Path == "/trees/abc":
			fmt.Fprintf(w, `{"tree":[%s]}`, f.treeEntries)
		case r.Method == http.MethodPut && r.URL.Path == "/repos/acme/deploy/contents/README.md":
			var body contentsRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding PUT body: %v", err)
			}
			f.puts = append(f.puts, body)
			status := f.putStatus
			if status == 0 {
				status = http.StatusOK
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestTrigger(t *testing.T, f *fakeGitHub) *RecoveryTrigger {
	t.Helper()
	var serverURL string
	srv := httptest.NewServer(f.handler(t, &serverURL))
	t.Cleanup(srv.Close)
	serverURL = srv.URL

	trigger, err := NewRecoveryTrigger(Config{
		BaseURL: srv.URL,
		Token:   "secret",
		Repo:    "acme/deploy",
		Branch:  "main",
		Path:    "README.md",
		Retry:   retry.Fixed(1, time.Millisecond),
		Now:     func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("NewRecoveryTrigger() error = %v", err)
	}
	return trigger
}

func TestNewRecoveryTrigger_Validation(t *testing.T) {
	if _, err := NewRecoveryTrigger(Config{Repo: "acme/deploy"}); err == nil {
		t.Error("expected error without token")
	}
	if _, err := NewRecoveryTrigger(Config{Token: "x", Repo: "deploy"}); err == nil {
		t.Error("expected error for repo without owner")
	}
}

func TestTriggerRecovery_UpdatesExistingFile(t *testing.T) {
	f := &fakeGitHub{treeEntries: `{"path":"main.go","sha":"111"},{"path":"README.md","sha":"222"}`}
	trigger := newTestTrigger(t, f)

	if err := trigger.TriggerRecovery(context.Background(), entity.RoleOpen, "lag 150s"); err != nil {
		t.Fatalf("TriggerRecovery() error = %v", err)
	}
	if len(f.puts) != 1 {
		t.Fatalf("PUT calls = %d, want 1", len(f.puts))
	}
	put := f.puts[0]
	if put.SHA != "222" {
		t.Errorf("sha = %q, want 222", put.SHA)
	}
	if put.Branch != "main" {
		t.Errorf("branch = %q, want main", put.Branch)
	}
	content, err := base64.StdEncoding.DecodeString(put.Content)
	if err != nil {
		t.Fatalf("content is not base64: %v", err)
	}
	for _, want := range []string{"role: open", "reason: lag 150s", "2023-11-14T22:13:20Z"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("content %q missing %q", content, want)
		}
	}
	for _, h := range f.authHeaders {
		if h != "Bearer secret" {
			t.Errorf("Authorization = %q", h)
		}
	}
}

func TestTriggerRecovery_CreatesMissingFile(t *testing.T) {
	f := &fakeGitHub{treeEntries: `{"path":"main.go","sha":"111"}`}
	trigger := newTestTrigger(t, f)

	if err := trigger.TriggerRecovery(context.Background(), entity.RoleClose, "lag"); err != nil {
		t.Fatalf("TriggerRecovery() error = %v", err)
	}
	if len(f.puts) != 1 || f.puts[0].SHA != "" {
		t.Errorf("expected one PUT without sha, got %+v", f.puts)
	}
}

func TestTriggerRecovery_PutRejected(t *testing.T) {
	f := &fakeGitHub{treeEntries: `{"path":"README.md","sha":"222"}`, putStatus: http.StatusConflict}
	trigger := newTestTrigger(t, f)

	if err := trigger.TriggerRecovery(context.Background(), entity.RoleOpen, "lag"); err == nil {
		t.Fatal("expected error on conflict")
	}
	if len(f.puts) != 1 {
		t.Errorf("client errors must not be retried, got %d PUTs", len(f.puts))
	}
}
