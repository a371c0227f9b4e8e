// Package collection implementa el puerto grid.Collection contra un servicio
// REST de colecciones paginadas (GET con page/size/sort/search, POST, PUT,
// DELETE y POST /batch-delete).
package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davicafu/lazygrid/internal/grid"
)

// PageResponse es el cuerpo de una consulta paginada.
type PageResponse[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
	Size          int `json:"size"`
}

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// APIError es una respuesta no exitosa del servidor.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

type Option func(*options)

type options struct {
	token   string
	timeout time.Duration
	client  *http.Client
}

// WithToken añade "Authorization: Bearer <token>" a cada petición.
func WithToken(token string) Option { return func(o *options) { o.token = token } }

func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithHTTPClient sustituye el cliente http; WithTimeout se ignora entonces.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.client = c } }

// HTTPClient implementa grid.Collection sobre HTTP/JSON. T se serializa tal
// cual; el campo "id" se omite al crear.
type HTTPClient[T grid.Entity] struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ grid.Collection[grid.Entity] = (*HTTPClient[grid.Entity])(nil)

// NewHTTPClient apunta a la raíz de la colección, p.ej.
// "http://localhost:8080/api/employees".
func NewHTTPClient[T grid.Entity](baseURL string, opts ...Option) *HTTPClient[T] {
	o := options{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	hc := o.client
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}
	return &HTTPClient[T]{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      o.token,
		httpClient: hc,
	}
}

func (c *HTTPClient[T]) List(ctx context.Context, req grid.Request) (grid.Page[T], error) {
	path := ""
	if q := req.Values(); len(q) > 0 {
		path = "?" + q.Encode()
	}

	var resp PageResponse[T]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return grid.Page[T]{}, err
	}
	return grid.Page[T]{Rows: resp.Content, TotalCount: resp.TotalElements}, nil
}

// Get no forma parte de grid.Collection; la CLI lo usa para editar campos
// sueltos sobre la versión del servidor.
func (c *HTTPClient[T]) Get(ctx context.Context, id string) (T, error) {
	var entity T
	if err := c.doJSON(ctx, http.MethodGet, "/"+url.PathEscape(id), nil, &entity); err != nil {
		return entity, err
	}
	return entity, nil
}

func (c *HTTPClient[T]) Create(ctx context.Context, entity T) (T, error) {
	var created T

	body, err := withoutID(entity)
	if err != nil {
		return created, err
	}
	if err := c.doJSON(ctx, http.MethodPost, "", body, &created); err != nil {
		return created, err
	}
	return created, nil
}

func (c *HTTPClient[T]) Update(ctx context.Context, entity T) (T, error) {
	var updated T
	if err := c.doJSON(ctx, http.MethodPut, "/"+url.PathEscape(entity.GetID()), entity, &updated); err != nil {
		return updated, err
	}
	return updated, nil
}

func (c *HTTPClient[T]) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient[T]) DeleteMany(ctx context.Context, ids []string) error {
	return c.doJSON(ctx, http.MethodPost, "/batch-delete", batchDeleteRequest{IDs: ids}, nil)
}

// withoutID serializa la entidad como objeto y quita la clave "id".
func withoutID(entity any) (map[string]any, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("marshaling entity: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("entity must serialize to a JSON object: %w", err)
	}
	delete(fields, "id")
	return fields, nil
}

// doJSON hace la petición con cuerpo JSON opcional y decodifica la respuesta.
// Con result nil el cuerpo se descarta.
func (c *HTTPClient[T]) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
