package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/lazygrid/internal/config"
)

// run ejecuta lazygrid con un fichero de configuración que apunta a srvURL.
func run(t *testing.T, srvURL string, stdin string, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lazygrid.toml")
	cfg := config.DefaultClientConfig()
	cfg.BaseURL = srvURL + "/api"
	require.NoError(t, config.SaveClientConfig(path, cfg))

	out := &syncBuffer{}
	root := NewRootCommand(strings.NewReader(stdin), out, out)
	root.SetArgs(append([]string{"--config", path, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListCommand_JSON(t *testing.T) {
	srv, _ := newServer(t, 12)

	out, err := run(t, srv.URL, "", "list", "--json", "--sort", "salary,desc", "--size", "5", "--page", "2")
	require.NoError(t, err)

	var page struct {
		Rows       []Row `json:"rows"`
		TotalCount int   `json:"totalCount"`
		Page       int   `json:"page"`
		Size       int   `json:"size"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 12, page.TotalCount)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 5, page.Size)
	require.Len(t, page.Rows, 5)
	assert.Equal(t, "Emp06", page.Rows[0].FirstName)
}

func TestListCommand_Table(t *testing.T) {
	srv, _ := newServer(t, 12)

	out, err := run(t, srv.URL, "", "list", "--filter", "firstName=emp1", "--sort", "firstName")
	require.NoError(t, err)
	assert.Contains(t, out, "Emp10")
	assert.Contains(t, out, "rows 1-2 of 2")
	assert.NotContains(t, out, "Emp02")
}

func TestMutationCommands(t *testing.T) {
	srv, _ := newServer(t, 2)

	out, err := run(t, srv.URL, "", "create", "firstName=Ana", "email=ana@example.com", "position=Analyst")
	require.NoError(t, err)
	assert.Contains(t, out, "Employee Created")
	id := strings.TrimSpace(out[strings.LastIndex(strings.TrimSpace(out), "\n")+1:])

	_, err = run(t, srv.URL, "", "update", id, "salary=75000")
	require.NoError(t, err)

	out, err = run(t, srv.URL, "", "list", "--json", "--search", "ana@")
	require.NoError(t, err)
	assert.Contains(t, out, `"salary": 75000`)

	_, err = run(t, srv.URL, "", "delete", id)
	require.NoError(t, err)
	out, err = run(t, srv.URL, "", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"totalCount": 2`)

	_, err = run(t, srv.URL, "", "create", "firstName=NoEmail")
	assert.Error(t, err)
}

func TestBrowseCommand(t *testing.T) {
	srv, _ := newServer(t, 3)

	out, err := run(t, srv.URL, "sort salary desc\nquit\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Type help for commands.")
	assert.Contains(t, out, "sort salary desc")
}

func TestConfigCommands(t *testing.T) {
	srv, _ := newServer(t, 0)

	out, err := run(t, srv.URL, "", "config", "show", "--page-size", "25")
	require.NoError(t, err)
	assert.Contains(t, out, "page_size = 25")
	assert.Contains(t, out, `timeout = "10s"`)

	path := filepath.Join(t.TempDir(), "new.toml")
	root := NewRootCommand(strings.NewReader(""), &syncBuffer{}, &syncBuffer{})
	root.SetArgs([]string{"--config", path, "--base-url", "http://grid:9000/api", "config", "init"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `base_url = "http://grid:9000/api"`)
}

func TestRootCommand_InvalidFlags(t *testing.T) {
	srv, _ := newServer(t, 0)
	_, err := run(t, srv.URL, "", "list", "--page-size", "-1")
	assert.Error(t, err)
}
