package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"almacenadora/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// taskDocument is the BSON shape of a task in the tareas collection.
type taskDocument struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	Nombre                 string             `bson:"nombre"`
	Description            string             `bson:"description"`
	FechaInicio            string             `bson:"fechaInicio"`
	FechaFin               string             `bson:"fechaFin"`
	NombreYapellidoPersona string             `bson:"nombreYapellidoPersona"`
	Estado                 bool               `bson:"estado"`
	CreatedAt              time.Time          `bson:"createdAt"`
	UpdatedAt              time.Time          `bson:"updatedAt"`
}

func (d taskDocument) toModel() models.Task {
	return models.Task{
		ID:                     d.ID.Hex(),
		Nombre:                 d.Nombre,
		Description:            d.Description,
		FechaInicio:            d.FechaInicio,
		FechaFin:               d.FechaFin,
		NombreYapellidoPersona: d.NombreYapellidoPersona,
		Estado:                 d.Estado,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}

// MongoTaskRepository stores tasks as documents in a MongoDB collection.
type MongoTaskRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoTaskRepository(collection *mongo.Collection) *MongoTaskRepository {
	return &MongoTaskRepository{
		collection: collection,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	now := r.now()
	doc := taskDocument{
		ID:                     primitive.NewObjectID(),
		Nombre:                 task.Nombre,
		Description:            task.Description,
		FechaInicio:            task.FechaInicio,
		FechaFin:               task.FechaFin,
		NombreYapellidoPersona: task.NombreYapellidoPersona,
		Estado:                 false,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	*task = doc.toModel()
	return nil
}

func (r *MongoTaskRepository) FindAll(ctx context.Context) ([]models.Task, error) {
	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, doc.toModel())
	}
	return tasks, nil
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc taskDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapMongoError(err, "find")
	}

	task := doc.toModel()
	return &task, nil
}

func (r *MongoTaskRepository) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": r.now()}
	for field, value := range patch.Fields() {
		set[field] = value
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return nil, mapMongoError(err, "update")
	}

	task := doc.toModel()
	return &task, nil
}

func (r *MongoTaskRepository) Delete(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc taskDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapMongoError(err, "delete")
	}

	task := doc.toModel()
	return &task, nil
}

// ToggleEstado flips estado server-side with an update pipeline so the read
// and the write are one atomic document operation.
func (r *MongoTaskRepository) ToggleEstado(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "estado", Value: bson.D{{Key: "$not", Value: bson.A{"$estado"}}}},
			{Key: "updatedAt", Value: r.now()},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, pipeline, opts).Decode(&doc); err != nil {
		return nil, mapMongoError(err, "toggle")
	}

	task := doc.toModel()
	return &task, nil
}

func mapMongoError(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s task: %w", op, err)
}
