package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
	sharedQuery "github.com/davicafu/lazygrid/internal/shared/infra/platform/query"
)

func TestCriteriaToMongoFilter(t *testing.T) {
	criteria := sharedDomain.And(
		employeeDomain.FieldContainsCriteria{Field: "lastName", Value: "o'neil.*"},
		employeeDomain.SalaryEqualsCriteria{Salary: 50000},
		employeeDomain.SearchCriteria("ana"),
	)

	filter, err := criteriaToMongoFilter(criteria)
	require.NoError(t, err)

	and, ok := filter["$and"].(bson.A)
	require.True(t, ok)
	require.Len(t, and, 3)

	assert.Equal(t, bson.M{"lastName": bson.M{"$regex": `o'neil\.\*`, "$options": "i"}}, and[0])
	assert.Equal(t, bson.M{"salary": bson.M{"$eq": 50000.0}}, and[1])

	or, ok := and[2].(bson.M)["$or"].(bson.A)
	require.True(t, ok)
	assert.Len(t, or, len(employeeDomain.TextFields))
	assert.Equal(t, bson.M{"firstName": bson.M{"$regex": "ana", "$options": "i"}}, or[0])
}

func TestCriteriaToMongoFilter_Empty(t *testing.T) {
	filter, err := criteriaToMongoFilter(nil)
	require.NoError(t, err)
	assert.Empty(t, filter)

	filter, err = criteriaToMongoFilter(sharedDomain.And(employeeDomain.SearchCriteria("")))
	require.NoError(t, err)
	assert.Empty(t, filter)
}

func TestCriteriaToMongoFilter_UnknownField(t *testing.T) {
	_, err := criteriaToMongoFilter(employeeDomain.FieldContainsCriteria{Field: "password", Value: "x"})
	assert.ErrorIs(t, err, employeeDomain.ErrInvalidQuery)
}

func TestSortToMongo(t *testing.T) {
	s, err := sortToMongo(sharedQuery.Sort{})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "createdDate", Value: -1}, {Key: "_id", Value: 1}}, s)

	s, err = sortToMongo(sharedQuery.Sort{Field: "salary", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "salary", Value: -1}, {Key: "_id", Value: 1}}, s)

	_, err = sortToMongo(sharedQuery.Sort{Field: "$where"})
	assert.ErrorIs(t, err, employeeDomain.ErrInvalidQuery)
}
