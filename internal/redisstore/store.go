// Package redisstore provides an outputstore.Store backed by Redis, so that
// the record of an execution outlives the process and a later attempt with
// the same execution ID can reuse completed stage outputs.
//
// Keys are laid out as
//
//	<prefix>:<executionID>:<stageID>:status
//	<prefix>:<executionID>:<stageID>:outputs
//	<prefix>:<executionID>:<stageID>:error
//
// Outputs are stored as JSON objects, so values come back as the JSON
// decoding of what was written (numbers as float64, objects as
// map[string]any).
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vk/stagegrid/internal/outputstore"
	"github.com/vk/stagegrid/internal/stage"
	"github.com/vk/stagegrid/internal/stageid"
)

// DefaultPrefix is the key prefix used when Options.Prefix is empty.
const DefaultPrefix = "stagegrid"

// Options configures a Store.
type Options struct {
	// Prefix namespaces all keys. Defaults to DefaultPrefix.
	Prefix string
	// TTL expires every key written. Zero keeps keys forever.
	TTL time.Duration
}

// Store is a Redis-backed outputstore.Store scoped to one execution.
type Store struct {
	client      *redis.Client
	prefix      string
	executionID string
	ttl         time.Duration
}

// New returns a store for executionID using client. The store owns the
// client and closes it on Close.
func New(client *redis.Client, executionID string, opts Options) outputstore.Store {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		client:      client,
		prefix:      prefix,
		executionID: executionID,
		ttl:         opts.TTL,
	}
}

// Dial connects to addr and verifies the connection with a PING.
func Dial(ctx context.Context, addr, executionID string, opts Options) (outputstore.Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return New(client, executionID, opts), nil
}

func (s *Store) key(id stageid.Address, kind string) string {
	return fmt.Sprintf("%s:%s:%s:%s", s.prefix, s.executionID, id.String(), kind)
}

// SetStatus records the execution status of a stage.
func (s *Store) SetStatus(ctx context.Context, id stageid.Address, status stage.State) error {
	if err := s.client.Set(ctx, s.key(id, "status"), status.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("setting status of %s: %w", id.String(), err)
	}
	return nil
}

// GetStatus returns the recorded status, or stage.Pending if none.
func (s *Store) GetStatus(ctx context.Context, id stageid.Address) (stage.State, error) {
	raw, err := s.client.Get(ctx, s.key(id, "status")).Result()
	if errors.Is(err, redis.Nil) {
		return stage.Pending, nil
	}
	if err != nil {
		return stage.Pending, fmt.Errorf("getting status of %s: %w", id.String(), err)
	}
	return stage.ParseState(raw)
}

// SetOutputs records outputs as a JSON object.
func (s *Store) SetOutputs(ctx context.Context, id stageid.Address, outputs map[string]any) error {
	if outputs == nil {
		outputs = map[string]any{}
	}
	payload, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("encoding outputs of %s: %w", id.String(), err)
	}
	if err := s.client.Set(ctx, s.key(id, "outputs"), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("setting outputs of %s: %w", id.String(), err)
	}
	return nil
}

// GetOutputs returns the recorded outputs and whether any were recorded.
func (s *Store) GetOutputs(ctx context.Context, id stageid.Address) (map[string]any, bool, error) {
	payload, err := s.client.Get(ctx, s.key(id, "outputs")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting outputs of %s: %w", id.String(), err)
	}

	outputs := map[string]any{}
	if err := json.Unmarshal(payload, &outputs); err != nil {
		return nil, false, fmt.Errorf("decoding outputs of %s: %w", id.String(), err)
	}
	return outputs, true, nil
}

// SetError records the message of stageErr.
func (s *Store) SetError(ctx context.Context, id stageid.Address, stageErr error) error {
	if stageErr == nil {
		return nil
	}
	if err := s.client.Set(ctx, s.key(id, "error"), stageErr.Error(), s.ttl).Err(); err != nil {
		return fmt.Errorf("setting error of %s: %w", id.String(), err)
	}
	return nil
}

// GetError returns the recorded failure as a plain error carrying the
// original message.
func (s *Store) GetError(ctx context.Context, id stageid.Address) (error, error) {
	msg, err := s.client.Get(ctx, s.key(id, "error")).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting error of %s: %w", id.String(), err)
	}
	return errors.New(msg), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
