package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trivialive/internal/model"
)

type SettingsRepo interface {
	GetByRoomCode(ctx context.Context, roomCode string) (*model.GameSettings, error)
	Save(ctx context.Context, settings *model.GameSettings) error
	Delete(ctx context.Context, roomCode string) error
}

type settingsRepo struct {
	collection *mongo.Collection
}

func NewSettingsRepo(db *mongo.Database) SettingsRepo {
	return &settingsRepo{
		collection: db.Collection("settings"),
	}
}

func (r *settingsRepo) GetByRoomCode(ctx context.Context, roomCode string) (*model.GameSettings, error) {
	var settings model.GameSettings
	err := r.collection.FindOne(ctx, bson.M{"roomCode": roomCode}).Decode(&settings)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // No settings saved yet
		}
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepo) Save(ctx context.Context, settings *model.GameSettings) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"roomCode": settings.RoomCode}, settings, opts)
	return err
}

func (r *settingsRepo) Delete(ctx context.Context, roomCode string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"roomCode": roomCode})
	return err
}
