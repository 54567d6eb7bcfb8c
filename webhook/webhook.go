// Package webhook delivers named panel events to a configured
// endpoint. Delivery is fire and forget: the orchestration layer
// enqueues and moves on, and a failed POST is only logged. Signing
// and durable retry live with the receiving side's infrastructure,
// not here.
package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang-collections/collections/queue"
	"github.com/sirupsen/logrus"
)

type Event struct {
	Event    string                 `json:"event"`
	ServerID string                 `json:"serverId,omitempty"`
	UserID   string                 `json:"userId,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
	At       time.Time              `json:"at"`
}

// Dispatcher drains a FIFO of events toward one endpoint URL. An
// empty URL turns it into a sink, which is what tests and minimal
// deployments use.
type Dispatcher struct {
	URL    string
	Logger logrus.FieldLogger

	mtx    sync.Mutex
	queue  *queue.Queue
	wake   chan struct{}
	stop   chan struct{}
	client *http.Client

	startOnce sync.Once
}

func NewDispatcher(url string, logger logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		URL:    url,
		Logger: logger,
		queue:  queue.New(),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Dispatch implements the orchestrator's WebhookDispatcher. Never
// blocks on delivery.
func (d *Dispatcher) Dispatch(event, serverID, userID string, data map[string]interface{}) {
	d.mtx.Lock()
	d.queue.Enqueue(Event{Event: event, ServerID: serverID, UserID: userID, Data: data, At: time.Now().UTC()})
	d.mtx.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Start launches the delivery goroutine.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		go d.run()
	})
}

func (d *Dispatcher) Stop() {
	close(d.stop)
}

func (d *Dispatcher) run() {
	for {
		select {
		case <-d.stop:
			return
		case <-d.wake:
			for {
				d.mtx.Lock()
				if d.queue.Len() == 0 {
					d.mtx.Unlock()
					break
				}
				ev := d.queue.Dequeue().(Event)
				d.mtx.Unlock()
				d.deliver(ev)
			}
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	if d.URL == "" {
		return
	}
	buf, err := json.Marshal(ev)
	if err != nil {
		d.Logger.WithError(err).Error("webhook marshal failed")
		return
	}
	resp, err := d.client.Post(d.URL, "application/json", bytes.NewReader(buf))
	if err != nil {
		d.Logger.WithField("event", ev.Event).WithError(err).Warn("webhook delivery failed")
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.Logger.WithFields(logrus.Fields{"event": ev.Event, "status": resp.StatusCode}).Warn("webhook endpoint rejected event")
	}
}
