package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"

	"welcome-screen-backend/config"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Alert is a message for the host's browsers.
type Alert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notifier accepts alerts for delivery.
type Notifier interface {
	Dispatch(alert Alert)
}

// WorkerPool manages a pool of workers for sending host alerts.
type WorkerPool struct {
	size    int
	jobs    chan Alert
	webpush *webpush.Options
	sender  NotificationSender

	mu            sync.Mutex
	subscriptions []webpush.Subscription
	closed        bool

	wg sync.WaitGroup
}

// NewWorkerPool creates a new worker pool delivering to the given subscriptions.
func NewWorkerPool(size int, subs []config.PushSubscription, webpushOptions *webpush.Options) *WorkerPool {
	subscriptions := make([]webpush.Subscription, 0, len(subs))
	for _, s := range subs {
		subscriptions = append(subscriptions, webpush.Subscription{
			Endpoint: s.Endpoint,
			Keys:     webpush.Keys{P256dh: s.P256DH, Auth: s.Auth},
		})
	}

	return &WorkerPool{
		size:          size,
		jobs:          make(chan Alert, size), // Buffered channel
		webpush:       webpushOptions,
		sender:        &WebPushSender{}, // Use the real sender by default
		subscriptions: subscriptions,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.wg.Add(wp.size)
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// Close stops accepting alerts and waits until the workers have delivered
// everything already queued. Short-lived processes call it before exiting.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if !wp.closed {
		wp.closed = true
		close(wp.jobs)
	}
	wp.mu.Unlock()
	wp.wg.Wait()
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log.Printf("Worker %d started", id)
	for {
		select {
		case alert, ok := <-wp.jobs:
			if !ok {
				log.Printf("Worker %d drained", id)
				return
			}
			log.Printf("Worker %d sending alert %q", id, alert.Title)
			wp.sendAlert(alert)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an alert. Alerts are dropped when the queue is full so a
// slow push service never stalls an update pass.
func (wp *WorkerPool) Dispatch(alert Alert) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		log.Printf("Alert pool closed; dropping %q", alert.Title)
		return
	}
	select {
	case wp.jobs <- alert:
	default:
		log.Printf("Alert queue full; dropping %q", alert.Title)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Alert {
	return wp.jobs
}

// Subscriptions returns the number of live subscriptions.
func (wp *WorkerPool) Subscriptions() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return len(wp.subscriptions)
}

// sendAlert delivers one alert to every subscription.
func (wp *WorkerPool) sendAlert(alert Alert) {
	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("Error encoding alert: %v", err)
		return
	}

	wp.mu.Lock()
	subs := append([]webpush.Subscription(nil), wp.subscriptions...)
	wp.mu.Unlock()

	for i := range subs {
		wp.sendNotification(&subs[i], payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(sub *webpush.Subscription, payload []byte) {
	resp, err := wp.sender.Send(payload, sub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Printf("Subscription for endpoint %s is expired. Dropping it until the next restart.", sub.Endpoint)
		wp.remove(sub.Endpoint)
	}
}

func (wp *WorkerPool) remove(endpoint string) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	kept := wp.subscriptions[:0]
	for _, s := range wp.subscriptions {
		if s.Endpoint != endpoint {
			kept = append(kept, s)
		}
	}
	wp.subscriptions = kept
}

// Nop discards alerts. It is used when push is not configured.
type Nop struct{}

// Dispatch implements Notifier.
func (Nop) Dispatch(Alert) {}
