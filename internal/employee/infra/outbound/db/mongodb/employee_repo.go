package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
	sharedMongo "github.com/davicafu/lazygrid/internal/shared/infra/platform/db/mongodb"
	sharedQuery "github.com/davicafu/lazygrid/internal/shared/infra/platform/query"
)

const employeesCollection = "employees"

// fields traduce campos lógicos a claves BSON.
var fields = map[string]string{
	employeeDomain.FieldFirstName:    "firstName",
	employeeDomain.FieldLastName:     "lastName",
	employeeDomain.FieldEmail:        "email",
	employeeDomain.FieldPosition:     "position",
	employeeDomain.FieldSalary:       "salary",
	employeeDomain.FieldCreatedDate:  "createdDate",
	employeeDomain.FieldModifiedDate: "modifiedDate",
}

// EmployeeRepoMongoDB implementa EmployeeRepository para MongoDB. Las
// transacciones requieren un replica set.
type EmployeeRepoMongoDB struct {
	client        *mongo.Client
	employeesColl *mongo.Collection
	outboxColl    *mongo.Collection
}

func NewEmployeeRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*EmployeeRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	db := client.Database(dbName)
	return &EmployeeRepoMongoDB{
		client:        client,
		employeesColl: db.Collection(employeesCollection),
		outboxColl:    db.Collection(sharedMongo.OutboxCollection),
	}, nil
}

// InitIndexes crea el índice único de email.
func (r *EmployeeRepoMongoDB) InitIndexes(ctx context.Context) error {
	_, err := r.employeesColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// --- Structs de BSON para el mapeo ---
// Se definen localmente para no "contaminar" el dominio con tags de BSON.

type mongoEmployee struct {
	ID           string    `bson:"_id"`
	FirstName    string    `bson:"firstName"`
	LastName     string    `bson:"lastName"`
	Email        string    `bson:"email"`
	Position     string    `bson:"position"`
	Salary       float64   `bson:"salary"`
	CreatedDate  time.Time `bson:"createdDate"`
	ModifiedDate time.Time `bson:"modifiedDate"`
}

// --- CRUD Transaccional ---

func (r *EmployeeRepoMongoDB) withTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	return session.WithTransaction(ctx, fn)
}

func (r *EmployeeRepoMongoDB) Create(ctx context.Context, e *employeeDomain.Employee, evt sharedDomain.OutboxEvent) error {
	_, err := r.withTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.employeesColl.InsertOne(sessCtx, toMongoEmployee(e)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, employeeDomain.ErrEmployeeAlreadyExists
			}
			return nil, err
		}
		return nil, sharedMongo.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
	return err
}

func (r *EmployeeRepoMongoDB) Update(ctx context.Context, e *employeeDomain.Employee, evt sharedDomain.OutboxEvent) error {
	_, err := r.withTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		me := toMongoEmployee(e)
		update := bson.M{"$set": bson.M{
			"firstName":    me.FirstName,
			"lastName":     me.LastName,
			"email":        me.Email,
			"position":     me.Position,
			"salary":       me.Salary,
			"modifiedDate": me.ModifiedDate,
		}}

		res, err := r.employeesColl.UpdateOne(sessCtx, bson.M{"_id": me.ID}, update)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, employeeDomain.ErrEmployeeAlreadyExists
			}
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, employeeDomain.ErrEmployeeNotFound
		}
		return nil, sharedMongo.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
	return err
}

func (r *EmployeeRepoMongoDB) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	_, err := r.withTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		res, err := r.employeesColl.DeleteOne(sessCtx, bson.M{"_id": id.String()})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, employeeDomain.ErrEmployeeNotFound
		}
		return nil, sharedMongo.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
	return err
}

func (r *EmployeeRepoMongoDB) DeleteByIDs(ctx context.Context, ids []uuid.UUID, evt sharedDomain.OutboxEvent) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	deleted, err := r.withTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		res, err := r.employeesColl.DeleteMany(sessCtx, bson.M{"_id": bson.M{"$in": strIDs}})
		if err != nil {
			return nil, err
		}
		if err := sharedMongo.InsertOutbox(sessCtx, r.outboxColl, evt); err != nil {
			return nil, err
		}
		return res.DeletedCount, nil
	})
	if err != nil {
		return 0, err
	}
	n, _ := deleted.(int64)
	return int(n), nil
}

// --- Lectura ---

func (r *EmployeeRepoMongoDB) GetByID(ctx context.Context, id uuid.UUID) (*employeeDomain.Employee, error) {
	var me mongoEmployee
	err := r.employeesColl.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&me)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, employeeDomain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return fromMongoEmployee(&me)
}

func (r *EmployeeRepoMongoDB) ListByCriteria(
	ctx context.Context,
	criteria sharedDomain.Criteria,
	pagination sharedQuery.OffsetPagination,
	sort sharedQuery.Sort,
) ([]*employeeDomain.Employee, int, error) {
	filter, err := criteriaToMongoFilter(criteria)
	if err != nil {
		return nil, 0, err
	}
	sortDoc, err := sortToMongo(sort)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.employeesColl.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSkip(int64(pagination.Offset)).
		SetLimit(int64(pagination.Limit)).
		SetSort(sortDoc)

	cursor, err := r.employeesColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	employees := []*employeeDomain.Employee{}
	for cursor.Next(ctx) {
		var me mongoEmployee
		if err := cursor.Decode(&me); err != nil {
			return nil, 0, err
		}
		e, err := fromMongoEmployee(&me)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, e)
	}
	return employees, int(total), cursor.Err()
}

// --- Helpers de Mapeo y Conversión ---

func toMongoEmployee(e *employeeDomain.Employee) *mongoEmployee {
	return &mongoEmployee{
		ID: e.ID.String(), FirstName: e.FirstName, LastName: e.LastName, Email: e.Email,
		Position: e.Position, Salary: e.Salary, CreatedDate: e.CreatedDate, ModifiedDate: e.ModifiedDate,
	}
}

func fromMongoEmployee(me *mongoEmployee) (*employeeDomain.Employee, error) {
	id, err := uuid.Parse(me.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in mongo document: %w", err)
	}
	return &employeeDomain.Employee{
		ID: id, FirstName: me.FirstName, LastName: me.LastName, Email: me.Email,
		Position: me.Position, Salary: me.Salary, CreatedDate: me.CreatedDate, ModifiedDate: me.ModifiedDate,
	}, nil
}

// sortToMongo siempre desempata por _id para que las páginas sean estables.
func sortToMongo(sort sharedQuery.Sort) (bson.D, error) {
	if sort.Field == "" {
		return bson.D{{Key: "createdDate", Value: -1}, {Key: "_id", Value: 1}}, nil
	}
	key, ok := fields[sort.Field]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort field %s", employeeDomain.ErrInvalidQuery, sort.Field)
	}
	dir := 1
	if sort.Desc {
		dir = -1
	}
	return bson.D{{Key: key, Value: dir}, {Key: "_id", Value: 1}}, nil
}

// criteriaToMongoFilter traduce el árbol de criterios a $and/$or.
func criteriaToMongoFilter(criteria sharedDomain.Criteria) (bson.M, error) {
	if sharedDomain.IsEmpty(criteria) {
		return bson.M{}, nil
	}

	if comp, ok := criteria.(sharedDomain.CompositeCriteria); ok {
		var parts bson.A
		for _, sub := range comp.Criterias {
			if sharedDomain.IsEmpty(sub) {
				continue
			}
			f, err := criteriaToMongoFilter(sub)
			if err != nil {
				return nil, err
			}
			parts = append(parts, f)
		}
		if len(parts) == 1 {
			return parts[0].(bson.M), nil
		}
		op := "$and"
		if comp.Operator == sharedDomain.OpOr {
			op = "$or"
		}
		return bson.M{op: parts}, nil
	}

	var parts bson.A
	for _, c := range criteria.ToConditions() {
		f, err := conditionToMongo(c)
		if err != nil {
			return nil, err
		}
		parts = append(parts, f)
	}
	if len(parts) == 1 {
		return parts[0].(bson.M), nil
	}
	return bson.M{"$and": parts}, nil
}

func conditionToMongo(c sharedDomain.Criterion) (bson.M, error) {
	key, ok := fields[c.Field]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %s", employeeDomain.ErrInvalidQuery, c.Field)
	}

	// Mapeo de operadores genéricos a operadores de MongoDB
	switch c.Op {
	case sharedDomain.OpContains:
		pattern := regexp.QuoteMeta(fmt.Sprint(c.Value))
		return bson.M{key: bson.M{"$regex": pattern, "$options": "i"}}, nil
	case sharedDomain.OpEq:
		return bson.M{key: bson.M{"$eq": c.Value}}, nil
	case sharedDomain.OpGt:
		return bson.M{key: bson.M{"$gt": c.Value}}, nil
	case sharedDomain.OpGte:
		return bson.M{key: bson.M{"$gte": c.Value}}, nil
	case sharedDomain.OpLt:
		return bson.M{key: bson.M{"$lt": c.Value}}, nil
	case sharedDomain.OpLte:
		return bson.M{key: bson.M{"$lte": c.Value}}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported operator %s", employeeDomain.ErrInvalidQuery, c.Op)
	}
}

var _ employeeDomain.EmployeeRepository = (*EmployeeRepoMongoDB)(nil)
