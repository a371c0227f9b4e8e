package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/lazygrid/internal/employee/application"
	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	sharedQuery "github.com/davicafu/lazygrid/internal/shared/infra/platform/query"
	"github.com/davicafu/lazygrid/pkg/utils"
)

// EmployeeHandler encapsula los endpoints HTTP de la colección de empleados.
type EmployeeHandler struct {
	service *application.EmployeeService
	log     *zap.Logger
}

func NewEmployeeHandler(service *application.EmployeeService, log *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{service: service, log: log}
}

// employeeRequest es el cuerpo de POST y PUT; el id del cuerpo se ignora.
type employeeRequest struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Position  string  `json:"position"`
	Salary    float64 `json:"salary"`
}

func (r employeeRequest) toDomain(id uuid.UUID) employeeDomain.Employee {
	return employeeDomain.Employee{
		ID:        id,
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Email:     strings.TrimSpace(r.Email),
		Position:  strings.TrimSpace(r.Position),
		Salary:    r.Salary,
	}
}

// PageResponse es el cuerpo de GET /api/employees.
type PageResponse struct {
	Content       []*employeeDomain.Employee `json:"content"`
	TotalElements int                        `json:"totalElements"`
	TotalPages    int                        `json:"totalPages"`
	Number        int                        `json:"number"`
	Size          int                        `json:"size"`
}

type batchDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// --- Handlers CRUD ---

// CreateEmployee endpoint POST /api/employees
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	e, err := h.service.CreateEmployee(c.Request.Context(), req.toDomain(uuid.Nil))
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

// GetEmployee endpoint GET /api/employees/:id
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	e, err := h.service.GetEmployee(c.Request.Context(), id)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

// UpdateEmployee endpoint PUT /api/employees/:id
func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	e, err := h.service.UpdateEmployee(c.Request.Context(), req.toDomain(id))
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

// DeleteEmployee endpoint DELETE /api/employees/:id
func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteEmployee(c.Request.Context(), id); err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteEmployees endpoint POST /api/employees/batch-delete
func (h *EmployeeHandler) DeleteEmployees(c *gin.Context) {
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.SendBadRequest(c, "invalid employee id: "+raw)
			return
		}
		ids = append(ids, id)
	}

	n, err := h.service.DeleteEmployees(c.Request.Context(), ids)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// ListEmployees endpoint GET /api/employees?page=&size=&sort=field,dir&search=&<campo>=
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	page, err := h.service.ListEmployees(c.Request.Context(), q)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PageResponse{
		Content:       page.Items,
		TotalElements: page.Total,
		TotalPages:    page.TotalPages(),
		Number:        page.Pagination.Page(),
		Size:          page.Pagination.Limit,
	})
}

// --- Helpers ---

var errBadParam = errors.New("invalid query parameter")

// parseListQuery lee page/size (base 0), sort "campo,asc|desc", search y un
// parámetro por campo filtrable. Otros parámetros se ignoran.
func parseListQuery(c *gin.Context) (application.ListQuery, error) {
	var q application.ListQuery

	page, err := intParam(c, "page", 0)
	if err != nil {
		return q, err
	}
	size, err := intParam(c, "size", sharedQuery.DefaultLimit)
	if err != nil {
		return q, err
	}
	q.Pagination = sharedQuery.NewPageRequest(page, size)

	if raw := strings.TrimSpace(c.Query("sort")); raw != "" {
		field, dir, _ := strings.Cut(raw, ",")
		q.Sort.Field = strings.TrimSpace(field)
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			q.Sort.Desc = true
		default:
			return q, errors.New("sort direction must be asc or desc")
		}
	}

	q.Search = c.Query("search")

	q.Filters = map[string]string{}
	for _, field := range employeeDomain.FilterFields {
		if v, ok := c.GetQuery(field); ok && strings.TrimSpace(v) != "" {
			q.Filters[field] = v
		}
	}
	return q, nil
}

func intParam(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s", errBadParam, name)
	}
	return n, nil
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid employee id")
		return uuid.Nil, false
	}
	return id, true
}

// sendServiceError traduce errores de dominio a códigos HTTP.
func (h *EmployeeHandler) sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, employeeDomain.ErrEmployeeNotFound):
		utils.SendNotFound(c, err.Error())
	case errors.Is(err, employeeDomain.ErrEmployeeAlreadyExists):
		utils.SendConflict(c, err.Error())
	case errors.Is(err, employeeDomain.ErrInvalidEmployee), errors.Is(err, employeeDomain.ErrInvalidQuery):
		utils.SendBadRequest(c, err.Error())
	default:
		h.log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		utils.SendInternalServerError(c, "internal error")
	}
}
