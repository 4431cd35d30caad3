package client

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventType 跨情境 session 事件種類。
type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
	EventRefreshed EventType = "refreshed"
)

// Event 在同一個 session 的多個情境（多分頁、多 worker）之間廣播狀態。
// TokenVersion 提供事件排序：持有較新版本的情境可以忽略過時的
// signed_out（換發競走的輸家誤判）；Forced 表示使用者主動登出，一律生效。
type Event struct {
	Type         EventType `json:"type"`
	TokenVersion int       `json:"token_version"`
	AccessToken  string    `json:"access_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Forced       bool      `json:"forced,omitempty"`
}

// Bus 發佈/訂閱 session 事件。實作不保證送達順序以外的任何事。
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(fn func(Event)) (unsubscribe func())
}

// MemoryBus 行程內的 Bus，供單一程式內多個 Client 同步。
type MemoryBus struct {
	mu   sync.Mutex
	subs map[int]func(Event)
	next int
}

// NewMemoryBus 建立行程內事件匯流排。
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]func(Event))}
}

func (b *MemoryBus) Publish(_ context.Context, e Event) error {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
	return nil
}

func (b *MemoryBus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// RedisBus 跨行程的 Bus，走 Redis pub/sub。
type RedisBus struct {
	rdb     *redis.Client
	channel string

	mu     sync.Mutex
	subs   map[int]func(Event)
	next   int
	cancel context.CancelFunc
}

// NewRedisBus 建立 Redis 事件匯流排並開始接收。
func NewRedisBus(rdb *redis.Client, channel string) *RedisBus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &RedisBus{
		rdb:     rdb,
		channel: channel,
		subs:    make(map[int]func(Event)),
		cancel:  cancel,
	}
	go b.receive(ctx)
	return b
}

func (b *RedisBus) receive(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Printf("[SessionBus] drop malformed event: %v", err)
				continue
			}
			b.mu.Lock()
			fns := make([]func(Event), 0, len(b.subs))
			for _, fn := range b.subs {
				fns = append(fns, fn)
			}
			b.mu.Unlock()
			for _, fn := range fns {
				fn(e)
			}
		}
	}
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Close 停止接收 Redis 訊息。
func (b *RedisBus) Close() {
	b.cancel()
}
