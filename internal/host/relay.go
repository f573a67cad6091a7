package host

import (
	"context"
	"strings"
	"sync"
	"time"

	json "github.com/json-iterator/go"

	"github.com/binsort-io/binsort/pkg/log"
	"github.com/binsort-io/binsort/pkg/mqtt"
	"github.com/binsort-io/binsort/pkg/mqtt/topic"
)

const publishTimeout = 5 * time.Second

// statePayload is the retained presence and snapshot of a host.
type statePayload struct {
	Online bool `json:"online"`
	*Snapshot
}

// Relay mirrors controller events to MQTT and accepts labels from a remote classifier.
type Relay struct {
	client mqtt.Client
	topics *topic.TopicBuilder
	hostID string
	ctrl   Controller
	logger log.Logger
}

func NewRelay(client mqtt.Client, topics *topic.TopicBuilder, hostID string, ctrl Controller) *Relay {
	return &Relay{
		client: client,
		topics: topics,
		hostID: hostID,
		ctrl:   ctrl,
		logger: log.WithName("relay").WithValues("hostID", hostID),
	}
}

// OfflinePayload is published as the Will on the state topic.
func OfflinePayload() []byte {
	return []byte(`{"online":false}`)
}

// Run relays until ctx is done or the event channel closes.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.client.Start(ctx); err != nil {
		return err
	}
	defer r.client.Disconnect(context.WithoutCancel(ctx))

	var wg sync.WaitGroup
	defer wg.Wait()
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.subscribe(subCtx)
	}()

	events := r.ctrl.Events()
	for {
		select {
		case <-ctx.Done():
			r.publish(context.WithoutCancel(ctx), r.topics.State(r.hostID), true, OfflinePayload())
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			b, err := json.Marshal(e)
			if err != nil {
				r.logger.Error(err, "Failed to encode event")
				continue
			}
			r.publish(ctx, r.topics.Event(r.hostID), false, b)
			r.publishState(ctx)
		}
	}
}

func (r *Relay) subscribe(ctx context.Context) {
	if err := r.client.AwaitConnection(ctx); err != nil {
		return
	}
	if err := r.client.Subscribe(ctx, r.topics.Classify(r.hostID), 1, r.onClassify); err != nil {
		r.logger.Error(err, "Failed to subscribe to classifications")
		return
	}
	r.publishState(ctx)
}

// onClassify accepts {"label": "..."} or a bare label.
func (r *Relay) onClassify(ctx context.Context, _ string, payload []byte) {
	var req classificationRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.Label == "" {
		req.Label = strings.TrimSpace(string(payload))
	}
	if req.Label == "" {
		r.logger.Warn("Ignoring empty classification message")
		return
	}
	resp := r.ctrl.HandleClassification(ctx, req.Label)
	r.logger.Debug("Remote classification handled", "label", req.Label, "status", string(resp.Status))
}

func (r *Relay) publishState(ctx context.Context) {
	snap := r.ctrl.State()
	b, err := json.Marshal(statePayload{Online: true, Snapshot: &snap})
	if err != nil {
		r.logger.Error(err, "Failed to encode state")
		return
	}
	r.publish(ctx, r.topics.State(r.hostID), true, b)
}

// publish drops the message while the broker is unreachable instead of queueing it.
func (r *Relay) publish(ctx context.Context, t string, retain bool, payload []byte) {
	if !r.client.IsConnected() {
		r.logger.Debug("Broker unreachable, message dropped", "topic", t)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, t, 1, retain, payload); err != nil {
		r.logger.Error(err, "Failed to publish", "topic", t)
	}
}
