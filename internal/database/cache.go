package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

var ErrCacheDisabled = errors.New("cache disabled")

// CacheBuilder chains a single cache operation against one key. A nil client
// turns every operation into a miss.
type CacheBuilder struct {
	client CacheClient
	key    string
	value  any
	ttl    time.Duration
	ctx    context.Context
}

func NewCacheBuilder(client CacheClient, key any) *CacheBuilder {
	return &CacheBuilder{
		client: client,
		key:    fmt.Sprint(key),
		ctx:    context.Background(),
	}
}

func (b *CacheBuilder) WithPrefix(prefix string) *CacheBuilder {
	b.key = prefix + ":" + b.key
	return b
}

func (b *CacheBuilder) WithStruct(value any) *CacheBuilder {
	b.value = value
	return b
}

func (b *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	b.ttl = ttl
	return b
}

func (b *CacheBuilder) WithContext(ctx context.Context) *CacheBuilder {
	if ctx != nil {
		b.ctx = ctx
	}
	return b
}

func (b *CacheBuilder) Key() string {
	return b.key
}

func (b *CacheBuilder) Set() error {
	if b.client == nil {
		return ErrCacheDisabled
	}

	data, err := json.Marshal(b.value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if b.ttl > 0 {
		cmd := b.client.B().Set().Key(b.key).Value(string(data)).ExSeconds(int64(b.ttl.Seconds())).Build()
		return b.client.Do(b.ctx, cmd).Error()
	}

	cmd := b.client.B().Set().Key(b.key).Value(string(data)).Build()
	return b.client.Do(b.ctx, cmd).Error()
}

// Get decodes the cached value into out and reports whether the key existed.
func (b *CacheBuilder) Get(out any) (bool, error) {
	if b.client == nil {
		return false, nil
	}

	data, err := b.client.Do(b.ctx, b.client.B().Get().Key(b.key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (b *CacheBuilder) Delete() error {
	if b.client == nil {
		return nil
	}
	return b.client.Do(b.ctx, b.client.B().Del().Key(b.key).Build()).Error()
}
