package websocket

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// CatalogRoom is joined by every connection; invalidation events are sent to it.
const CatalogRoom socketio.Room = "catalog"

// Event names emitted to clients after a successful mutation.
const (
	EventDesignsChanged    = "designs-changed"
	EventCategoriesChanged = "categories-changed"
)

// Change describes what a client should refetch.
type Change struct {
	Action   string `json:"action"`
	ID       int    `json:"id,omitempty"`
	Category string `json:"category,omitempty"`
}

// Notifier is told about every successful write so list views can be refreshed.
type Notifier interface {
	DesignsChanged(change Change)
	CategoriesChanged(change Change)
}

type SocketNotifier struct {
	srv *socketio.Server

	mu      sync.RWMutex
	clients int
}

// SetupSocketIO creates the socket.io server and the Notifier that broadcasts through it.
func SetupSocketIO(allowedOrigins []string) (*socketio.Server, *SocketNotifier) {
	opts := socketio.DefaultServerOptions()
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	origins := make([]any, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins = append(origins, o)
	}
	opts.SetCors(&types.Cors{
		Origin:      origins,
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)
	n := &SocketNotifier{srv: srv}

	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		socket.Join(CatalogRoom)
		n.adjust(1)
		logrus.WithField("socket", socket.Id()).Debug("Client subscribed to catalog changes")

		socket.On("disconnect", func(...any) {
			n.adjust(-1)
			socket.RemoveAllListeners("")
		})
	})
	return srv, n
}

func (n *SocketNotifier) adjust(delta int) {
	n.mu.Lock()
	n.clients += delta
	n.mu.Unlock()
}

// Clients returns the number of connected sockets.
func (n *SocketNotifier) Clients() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.clients
}

func (n *SocketNotifier) DesignsChanged(change Change) {
	n.emit(EventDesignsChanged, change)
}

func (n *SocketNotifier) CategoriesChanged(change Change) {
	n.emit(EventCategoriesChanged, change)
}

func (n *SocketNotifier) emit(event string, change Change) {
	if err := n.srv.To(CatalogRoom).Emit(event, change); err != nil {
		logrus.WithFields(logrus.Fields{
			"event": event,
			"error": err,
		}).Warn("Failed to broadcast change")
	}
}

// Recorder is a Notifier that keeps every change in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []RecordedEvent
}

type RecordedEvent struct {
	Event  string
	Change Change
}

func (r *Recorder) DesignsChanged(change Change) {
	r.record(EventDesignsChanged, change)
}

func (r *Recorder) CategoriesChanged(change Change) {
	r.record(EventCategoriesChanged, change)
}

func (r *Recorder) record(event string, change Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, RecordedEvent{Event: event, Change: change})
}

// Snapshot returns a copy of the recorded events.
func (r *Recorder) Snapshot() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent(nil), r.Events...)
}
