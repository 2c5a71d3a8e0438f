/*
 * Copyright 2025 The Kernel Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package mongo implements database interfaces using MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/scieloorg/kernel/server/backend/database"
	"github.com/scieloorg/kernel/server/logging"
)

// Client is a client that connects to Mongo DB and reads or saves kernel
// data.
type Client struct {
	config *Config
	client *mongo.Client
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	client, err := mongo.Connect(
		ctx,
		options.Client().ApplyURI(conf.ConnectionURI),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancelPing()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if err := ensureIndexes(ctx, client.Database(conf.Database)); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	logging.DefaultLogger().Infof("MongoDB connected, URI: %s, DB: %s", conf.ConnectionURI, conf.Database)

	return &Client{
		config: conf,
		client: client,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}

	return nil
}

// EnsureIndexes creates the indexes of the kernel collections if they do
// not exist.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, c.client.Database(c.config.Database))
}

// InsertRecord stores a new record.
func (c *Client) InsertRecord(
	ctx context.Context,
	col database.Collection,
	record *database.Record,
) error {
	if _, err := c.collection(string(col)).InsertOne(ctx, bson.M{
		"_id":      record.ID,
		"revision": database.InitialRevision,
		"body":     record.Body,
	}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s %s: %w", col, record.ID, database.ErrRecordAlreadyExists)
		}
		return fmt.Errorf("insert %s %s: %w", col, record.ID, err)
	}

	record.Revision = database.InitialRevision
	return nil
}

// FindRecord returns the record of the given id.
func (c *Client) FindRecord(
	ctx context.Context,
	col database.Collection,
	id string,
) (*database.Record, error) {
	result := c.collection(string(col)).FindOne(ctx, bson.M{"_id": id})

	record := &database.Record{}
	if err := result.Decode(record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s %s: %w", col, id, database.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("find %s %s: %w", col, id, err)
	}

	return record, nil
}

// ReplaceRecord replaces the stored record if it is still at the given
// revision.
func (c *Client) ReplaceRecord(
	ctx context.Context,
	col database.Collection,
	record *database.Record,
	revision int64,
) error {
	collection := c.collection(string(col))
	res, err := collection.ReplaceOne(ctx, bson.M{
		"_id":      record.ID,
		"revision": revision,
	}, bson.M{
		"_id":      record.ID,
		"revision": revision + 1,
		"body":     record.Body,
	})
	if err != nil {
		return fmt.Errorf("replace %s %s: %w", col, record.ID, err)
	}

	if res.MatchedCount == 0 {
		n, err := collection.CountDocuments(ctx, bson.M{"_id": record.ID})
		if err != nil {
			return fmt.Errorf("count %s %s: %w", col, record.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("%s %s: %w", col, record.ID, database.ErrRecordNotFound)
		}
		return fmt.Errorf("%s %s at revision %d: %w", col, record.ID, revision, database.ErrConflictOnUpdate)
	}

	record.Revision = revision + 1
	return nil
}

// AppendChange appends an entry to the change log.
func (c *Client) AppendChange(ctx context.Context, info *database.ChangeInfo) error {
	id := primitive.NewObjectID()
	if _, err := c.collection(ColChanges).InsertOne(ctx, bson.M{
		"_id":       id,
		"entity":    info.Entity,
		"entity_id": info.EntityID,
		"timestamp": info.Timestamp,
		"deleted":   info.Deleted,
	}); err != nil {
		return fmt.Errorf("append change of %s: %w", info.EntityID, err)
	}

	info.ID = id.Hex()
	return nil
}

// FindChanges returns the entries of the change log after the entry carrying
// the given timestamp.
func (c *Client) FindChanges(
	ctx context.Context,
	since string,
	limit int,
) ([]*database.ChangeInfo, error) {
	if limit <= 0 {
		return nil, nil
	}

	collection := c.collection(ColChanges)
	filter := bson.M{}
	if since != "" {
		var anchor struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := collection.FindOne(
			ctx,
			bson.M{"timestamp": since},
			options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}),
		).Decode(&anchor); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, nil
			}
			return nil, fmt.Errorf("find change at %s: %w", since, err)
		}

		filter = bson.M{"$or": bson.A{
			bson.M{"timestamp": bson.M{"$gt": since}},
			bson.M{"timestamp": since, "_id": bson.M{"$gt": anchor.ID}},
		}}
	}

	cursor, err := collection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("find changes since %q: %w", since, err)
	}

	var infos []*database.ChangeInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch changes since %q: %w", since, err)
	}

	return infos, nil
}

// FindChangeInfo returns the change log entry of the given id.
func (c *Client) FindChangeInfo(ctx context.Context, id string) (*database.ChangeInfo, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrChangeNotFound)
	}

	info := &database.ChangeInfo{}
	if err := c.collection(ColChanges).FindOne(ctx, bson.M{"_id": objectID}).Decode(info); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", id, database.ErrChangeNotFound)
		}
		return nil, fmt.Errorf("find change %s: %w", id, err)
	}

	return info, nil
}

func (c *Client) collection(name string) *mongo.Collection {
	return c.client.Database(c.config.Database).Collection(name)
}
