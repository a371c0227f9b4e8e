package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRequest_Defaults(t *testing.T) {
	req := BuildRequest(NewQueryState(10))

	assert.Equal(t, 0, req.Page)
	assert.Equal(t, 10, req.Size)
	assert.Empty(t, req.Sort)
	assert.Empty(t, req.Search)
	assert.Equal(t, "page=0&size=10", req.Values().Encode())
}

func TestBuildRequest_Full(t *testing.T) {
	s := NewQueryState(10)
	s = Reduce(s, FilterChange{Filters: RawFilters{
		"global":    map[string]any{"value": "ana"},
		"lastName":  map[string]any{"value": "Smith"},
		"salary":    map[string]any{"value": 50000.0, "matchMode": "equals"},
		"firstName": map[string]any{"value": ""},
		"email":     map[string]any{"value": nil},
	}})
	s = Reduce(s, PageChange{Offset: 30, PageSize: 10})
	s = Reduce(s, SortChange{Field: "lastName", Direction: SortDesc})

	req := BuildRequest(s)
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, "lastName,desc", req.Sort)
	assert.Equal(t, "ana", req.Search)
	assert.Equal(t, map[string]string{"lastName": "Smith", "salary": "50000"}, req.Filters)

	q := req.Values()
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "10", q.Get("size"))
	assert.Equal(t, "lastName,desc", q.Get("sort"))
	assert.Equal(t, "ana", q.Get("search"))
	assert.False(t, q.Has("global"))
	assert.False(t, q.Has("firstName"))
	assert.False(t, q.Has("email"))
}

func TestBuildRequest_EmptyValuesNeverSent(t *testing.T) {
	empties := []any{nil, ""}
	for _, v := range empties {
		s := Reduce(NewQueryState(5), FilterChange{Filters: RawFilters{
			"lastName": map[string]any{"value": v},
			"global":   map[string]any{"value": v},
		}})
		q := BuildRequest(s).Values()
		assert.False(t, q.Has("lastName"))
		assert.False(t, q.Has("search"))
	}
}

func TestBuildRequest_ReservedFieldsDropped(t *testing.T) {
	s := Reduce(NewQueryState(10), FilterChange{Filters: RawFilters{
		"page": map[string]any{"value": "99"},
		"size": map[string]any{"value": "1"},
	}})
	q := BuildRequest(s).Values()
	assert.Equal(t, "0", q.Get("page"))
	assert.Equal(t, "10", q.Get("size"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "50000", FormatValue(50000.0))
	assert.Equal(t, "3.5", FormatValue(3.5))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "42", FormatValue(42))
	assert.Equal(t, "", FormatValue(nil))
}
