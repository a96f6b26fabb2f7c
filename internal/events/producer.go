package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	ErrProducerClosed = errors.New("producer closed")
	ErrBufferFull     = errors.New("producer buffer full")
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers events in a channel and writes them to Kafka from a
// single goroutine, so publishing never blocks a request on the broker.
// When the buffer is full Publish fails fast instead of waiting.
type Producer struct {
	w            messageWriter
	inbox        chan kafka.Message
	done         chan struct{}
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}, buf)
}

func newProducer(w messageWriter, buf int) *Producer {
	p := &Producer{
		w:            w,
		inbox:        make(chan kafka.Message, buf),
		done:         make(chan struct{}),
		writeTimeout: 10 * time.Second,
	}
	go p.run()
	return p
}

func (p *Producer) run() {
	defer close(p.done)
	for m := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
		if err := p.w.WriteMessages(ctx, m); err != nil {
			log.Printf("[EVENTS] write %s failed: %v", m.Key, err)
		}
		cancel()
	}
	if err := p.w.Close(); err != nil {
		log.Printf("[EVENTS] close writer: %v", err)
	}
}

func (p *Producer) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:     e.Key(),
		Value:   payload,
		Time:    e.OccurredAt,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(e.Type)}},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops accepting events, flushes what is buffered and closes the
// writer. It is safe to call more than once.
func (p *Producer) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	<-p.done
}
