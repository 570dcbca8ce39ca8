package broker

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"analytics-go/src/packages/event"
)

var ErrQueueFull = errors.New("broker queue full")

type BrokerStats struct {
	Published uint64
	Failed    uint64
	Dropped   uint64
}

// Broker is the consumer of attached event records.
//
// Every consumed record is duplicated once into the send queue and released
// once, the duplicate is released by the worker after it is published.
type Broker struct {
	manager event.Manager
	adaptor Adaptor
	topic   string
	schema  Schema

	queue    chan *event.Record
	wg       sync.WaitGroup
	closed   bool
	closedMu sync.RWMutex

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

func NewBroker(
	manager event.Manager,
	adaptor Adaptor,
	topic string,
	schema Schema,
	queueSize int,
) *Broker {
	if queueSize <= 0 {
		queueSize = 1
	}

	return &Broker{
		manager: manager,
		adaptor: adaptor,
		topic:   topic,
		schema:  schema,
		queue:   make(chan *event.Record, queueSize),
	}
}

func (b *Broker) Topic() string {
	return b.topic
}

func (b *Broker) Open() error {
	err := b.adaptor.Open()
	if err != nil {
		return err
	}

	b.wg.Add(1)
	go b.handle()

	return nil
}

func (b *Broker) handle() {
	defer b.wg.Done()

	for rec := range b.queue {
		b.send(rec)
		b.manager.Release(rec)
	}
}

func (b *Broker) send(rec *event.Record) {
	payload, err := MarshalRecord(rec, b.schema)
	if err != nil {
		log.Println("broker marshal error", rec.MessageID, err)
		b.failed.Add(1)
		return
	}

	err = b.adaptor.Publish(b.topic, payload)
	if err != nil {
		log.Println("broker publish error", rec.MessageID, err)
		b.failed.Add(1)
		return
	}

	b.published.Add(1)
}

func (b *Broker) enqueue(rec *event.Record) error {
	b.closedMu.RLock()
	defer b.closedMu.RUnlock()

	if b.closed {
		return ErrQueueFull
	}

	select {
	case b.queue <- rec:
		return nil
	default:
		return ErrQueueFull
	}
}

// Consume takes ownership of records, each one is released before returning
func (b *Broker) Consume(records ...*event.Record) {
	for _, rec := range records {
		dup, err := b.manager.Duplicate(rec)
		b.manager.Release(rec)

		if err != nil {
			log.Println("broker duplicate event error", err)
			b.dropped.Add(1)
			continue
		}

		err = b.enqueue(dup)
		if err != nil {
			log.Println("broker enqueue event error", dup.MessageID, err)
			b.manager.Release(dup)
			b.dropped.Add(1)
		}
	}
}

func (b *Broker) Stats() BrokerStats {
	return BrokerStats{
		Published: b.published.Load(),
		Failed:    b.failed.Load(),
		Dropped:   b.dropped.Load(),
	}
}

// Close sends what is queued then closes the adaptor
func (b *Broker) Close() {
	b.closedMu.Lock()
	if b.closed {
		b.closedMu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.closedMu.Unlock()

	b.wg.Wait()

	b.adaptor.Close()
}
