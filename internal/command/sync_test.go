package command

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/jsonapi"

	"github.com/tfve/tfve/internal/tfcloud"
)

// fakeAPI is a minimal in-memory workspace-variables endpoint.
type fakeAPI struct {
	t         *testing.T
	vars      map[string]*tfcloud.Variable // keyed by variable key
	created   []string
	updated   []string
	workspace string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/organizations/test-org/workspaces", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", jsonapi.MediaType)
		err := jsonapi.MarshalPayload(w, []*tfcloud.Workspace{
			{ID: f.workspace, Name: "app-production"},
		})
		if err != nil {
			f.t.Errorf("marshal workspaces: %s", err)
		}
	})
	mux.HandleFunc("/api/v2/workspaces/"+f.workspace+"/vars", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", jsonapi.MediaType)
		switch r.Method {
		case http.MethodGet:
			vars := make([]*tfcloud.Variable, 0, len(f.vars))
			for _, v := range f.vars {
				vars = append(vars, v)
			}
			if err := jsonapi.MarshalPayload(w, vars); err != nil {
				f.t.Errorf("marshal variables: %s", err)
			}
		case http.MethodPost:
			sent := &tfcloud.Variable{}
			if err := jsonapi.UnmarshalPayload(r.Body, sent); err != nil {
				f.t.Errorf("unmarshal create: %s", err)
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			sent.ID = "var-" + sent.Key
			f.vars[sent.Key] = sent
			f.created = append(f.created, sent.Key)
			w.WriteHeader(http.StatusCreated)
			if err := jsonapi.MarshalPayload(w, sent); err != nil {
				f.t.Errorf("marshal created: %s", err)
			}
		default:
			http.Error(w, "bad method", http.StatusMethodNotAllowed)
		}
	})
	return mux
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSyncCommand(t *testing.T) {
	const outputsDoc = `{"n": {"sensitive": false, "value": 0}}`
	const exportList = "n,n_out\n"

	t.Run("creates a missing variable", func(t *testing.T) {
		api := &fakeAPI{t: t, vars: map[string]*tfcloud.Variable{}, workspace: "ws-1"}
		srv := httptest.NewServer(api.handler())
		defer srv.Close()

		t.Setenv(EnvToken, "test-token")
		t.Setenv(EnvOrganization, "test-org")

		dir := t.TempDir()
		outputsPath := writeFile(t, dir, "outputs.json", outputsDoc)
		exportPath := writeFile(t, dir, "export_list.txt", exportList)

		ui := cli.NewMockUi()
		c := &SyncCommand{Meta: Meta{Ui: ui}}
		code := c.Run([]string{"-base-url", srv.URL, "-workspaces", "app-production", outputsPath, exportPath})
		if code != 0 {
			t.Fatalf("exit code %d; stderr:\n%s", code, ui.ErrorWriter.String())
		}

		if len(api.created) != 1 || api.created[0] != "n_out" {
			t.Errorf("server saw creates %v, want exactly [n_out]", api.created)
		}
		created := api.vars["n_out"]
		if created.Value != "0" {
			t.Errorf("stored value is %q, want %q", created.Value, "0")
		}
		if created.HCL {
			t.Error("scalar was stored with the hcl flag set")
		}
		if out := ui.OutputWriter.String(); !strings.Contains(out, "created n_out (var-n_out) = 0") {
			t.Errorf("output does not report the create:\n%s", out)
		}
	})

	t.Run("leaves an existing variable alone without -allow-update", func(t *testing.T) {
		api := &fakeAPI{
			t: t,
			vars: map[string]*tfcloud.Variable{
				"n_out": {ID: "var-old", Key: "n_out", Value: "42"},
			},
			workspace: "ws-1",
		}
		srv := httptest.NewServer(api.handler())
		defer srv.Close()

		t.Setenv(EnvToken, "test-token")
		t.Setenv(EnvOrganization, "test-org")

		dir := t.TempDir()
		outputsPath := writeFile(t, dir, "outputs.json", outputsDoc)
		exportPath := writeFile(t, dir, "export_list.txt", exportList)

		ui := cli.NewMockUi()
		c := &SyncCommand{Meta: Meta{Ui: ui}}
		code := c.Run([]string{"-base-url", srv.URL, "-workspaces", "app-production", outputsPath, exportPath})
		if code != 0 {
			t.Fatalf("exit code %d; stderr:\n%s", code, ui.ErrorWriter.String())
		}

		if len(api.created) != 0 {
			t.Errorf("server saw creates %v, want none", api.created)
		}
		if api.vars["n_out"].Value != "42" {
			t.Errorf("existing value changed to %q", api.vars["n_out"].Value)
		}
		if errOut := ui.ErrorWriter.String(); !strings.Contains(errOut, "n_out") {
			t.Errorf("warning does not name the ignored variable:\n%s", errOut)
		}
	})

	t.Run("duplicate destinations fail before any network call", func(t *testing.T) {
		t.Setenv(EnvToken, "test-token")
		t.Setenv(EnvOrganization, "test-org")

		dir := t.TempDir()
		outputsPath := writeFile(t, dir, "outputs.json", outputsDoc)
		exportPath := writeFile(t, dir, "export_list.txt", "n,n_out\nn,n_out\n")

		ui := cli.NewMockUi()
		c := &SyncCommand{Meta: Meta{Ui: ui}}
		// Unroutable base URL: reaching the network would fail loudly.
		code := c.Run([]string{"-base-url", "http://127.0.0.1:0", "-workspaces", "app-production", outputsPath, exportPath})
		if code == 0 {
			t.Fatal("exit code 0 for a duplicate destination")
		}
		if errOut := ui.ErrorWriter.String(); !strings.Contains(errOut, "duplicate") {
			t.Errorf("error does not mention the duplicate:\n%s", errOut)
		}
	})
}

func TestOutputsCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "outputs.json", `{
		"tuple": {"sensitive": false, "value": ["aaa", "bbb"]},
		"secret": {"sensitive": true, "value": "hidden"},
		"n": {"sensitive": false, "value": 0}
	}`)

	ui := cli.NewMockUi()
	c := &OutputsCommand{Meta: Meta{Ui: ui}}
	if code := c.Run([]string{path}); code != 0 {
		t.Fatalf("exit code %d; stderr:\n%s", code, ui.ErrorWriter.String())
	}

	out := ui.OutputWriter.String()
	if !strings.Contains(out, `tuple (hcl) = ["aaa","bbb"]`) {
		t.Errorf("tuple not rendered as hcl:\n%s", out)
	}
	if !strings.Contains(out, "n = 0") {
		t.Errorf("scalar not rendered:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("sensitive value leaked:\n%s", out)
	}
}
