package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

var (
	instance evbus.Bus
	asyncBus *AsyncEventBus
	once     sync.Once
)

func initBuses() {
	once.Do(func() {
		instance = New()
		asyncBus = NewAsyncEventBus(4)
		asyncBus.Start()
	})
}

// Get returns the process-wide synchronous bus.
func Get() evbus.Bus {
	initBuses()
	return instance
}

// GetAsync returns the process-wide asynchronous bus.
func GetAsync() *AsyncEventBus {
	initBuses()
	return asyncBus
}

// New creates an independent synchronous bus, mainly for tests.
func New() evbus.Bus {
	return evbus.New()
}

func Publish(topic string, args ...interface{}) {
	Get().Publish(topic, args...)
}

func PublishAsync(topic string, args ...interface{}) {
	GetAsync().PublishAsync(topic, args...)
}

func Subscribe(topic string, fn interface{}) error {
	return Get().Subscribe(topic, fn)
}

func SubscribeAsync(topic string, fn interface{}) error {
	return GetAsync().Subscribe(topic, fn)
}

// Shutdown drains and stops the async worker pool.
func Shutdown() {
	if asyncBus != nil {
		asyncBus.Stop()
	}
}
