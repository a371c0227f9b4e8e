package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/lazygrid/internal/collection"
	"github.com/davicafu/lazygrid/internal/employee/application"
	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	employeeHttp "github.com/davicafu/lazygrid/internal/employee/infra/inbound/http"
	"github.com/davicafu/lazygrid/tests/mocks"
)

// newServer levanta el servicio de empleados sobre un repositorio en memoria.
func newServer(t *testing.T, n int) (*httptest.Server, *mocks.InMemoryEmployeeRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := mocks.NewInMemoryEmployeeRepo()
	for i := 0; i < n; i++ {
		repo.Seed(employeeDomain.Employee{
			FirstName: fmt.Sprintf("Emp%02d", i),
			LastName:  "Doe",
			Email:     fmt.Sprintf("emp%02d@example.com", i),
			Position:  "Developer",
			Salary:    float64(1000 * (i + 1)),
		})
	}

	service := application.NewEmployeeService(repo, mocks.NewDummyCache(), zap.NewNop())
	r := gin.New()
	employeeHttp.RegisterEmployeeRoutes(r, employeeHttp.NewEmployeeHandler(service, zap.NewNop()))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

// newTestSession monta una sesión contra srv; out recoge tabla y avisos.
func newTestSession(t *testing.T, srv *httptest.Server, pageSize int) (*Session, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	client := collection.NewHTTPClient[Row](srv.URL + "/api/employees")
	s := NewSession(client, out, pageSize, 2*time.Second, zap.NewNop())

	_, err := s.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, out
}

// syncBuffer: el notifier escribe desde la goroutine de la mutación.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}
