package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"boardduel/internal/usecase/relay"
)

const matchesCollection = "matches"

type MatchDocument struct {
	ID       string    `json:"id" bson:"_id"`
	Code     string    `json:"code" bson:"code"`
	GameType string    `json:"gameType" bson:"game_type"`
	Winner   string    `json:"winner" bson:"winner"`
	Reason   string    `json:"reason" bson:"reason"`
	Moves    []string  `json:"moves" bson:"moves"`
	Started  time.Time `json:"started" bson:"started"`
	Finished time.Time `json:"finished" bson:"finished"`
}

// ArchiveRepository stores finished matches in mongo.
type ArchiveRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewArchiveRepository(log *zap.SugaredLogger, mongo *mongo.Database) *ArchiveRepository {
	return &ArchiveRepository{
		log:   log,
		mongo: mongo,
	}
}

// AppendMove is a no-op: only finished matches are archived.
func (a *ArchiveRepository) AppendMove(context.Context, string, json.RawMessage) error {
	return nil
}

func (a *ArchiveRepository) Finish(ctx context.Context, rec relay.MatchRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := MatchDocument{
		ID:       uuid.New().String(),
		Code:     rec.Code,
		GameType: string(rec.GameType),
		Winner:   rec.Winner,
		Reason:   rec.Reason,
		Moves:    make([]string, 0, len(rec.Moves)),
		Started:  rec.Started,
		Finished: rec.Finished,
	}
	for _, m := range rec.Moves {
		doc.Moves = append(doc.Moves, string(m))
	}

	if _, err := a.mongo.Collection(matchesCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("archive match %s: %w", rec.Code, err)
	}
	a.log.Infof("match %s archived as %s", rec.Code, doc.ID)
	return nil
}

// RecentByCode returns the latest archived matches played in a room.
func (a *ArchiveRepository) RecentByCode(ctx context.Context, code string, limit int64) ([]MatchDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"finished": -1}).SetLimit(limit)
	cursor, err := a.mongo.Collection(matchesCollection).Find(ctx, bson.M{"code": code}, opts)
	if err != nil {
		return nil, fmt.Errorf("find matches of %s: %w", code, err)
	}
	defer cursor.Close(ctx)

	var out []MatchDocument
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode matches of %s: %w", code, err)
	}
	return out, nil
}
