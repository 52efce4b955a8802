package mqtt

import (
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/hollyward/showbox-core/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang as a single-attempt transport.
//
// Each Dial performs exactly one connection attempt and reports the outcome
// through callbacks; a lost connection is reported once through the
// connection-lost callback. The client never retries on its own.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	// dialing guards against overlapping connection attempts.
	dialing bool
	dialMu  sync.Mutex

	// onConnectionLost is invoked when an established connection drops.
	onConnectionLost func(err error)
	callbackMu       sync.RWMutex

	// logger for handler error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked in separate goroutines by the paho library.
// They should not block for extended periods.
//
// Parameters:
//   - topic: The topic the message was received on (wildcards expanded)
//   - payload: The raw message payload (typically JSON)
//
// Returns:
//   - error: Logged but does not affect message acknowledgment
type MessageHandler func(topic string, payload []byte) error

// NewClient creates a transport for the configured broker.
// No connection is made until Dial is called.
func NewClient(cfg config.MQTTConfig) *Client {
	c := &Client{cfg: cfg}
	c.options = buildClientOptions(cfg)

	c.options.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.callbackMu.RLock()
		callback := c.onConnectionLost
		c.callbackMu.RUnlock()
		if callback != nil {
			callback(err)
		}
	})

	c.client = pahomqtt.NewClient(c.options)
	return c
}

// Dial starts one asynchronous connection attempt.
//
// Exactly one of onSuccess or onFailure is invoked, from a separate
// goroutine, when the attempt resolves. Dial returns ErrDialInProgress if an
// attempt is already underway and does not start another.
//
// Parameters:
//   - onSuccess: Called when the connection is established
//   - onFailure: Called with the cause when the attempt fails
func (c *Client) Dial(onSuccess func(), onFailure func(err error)) error {
	c.dialMu.Lock()
	if c.dialing {
		c.dialMu.Unlock()
		return ErrDialInProgress
	}
	c.dialing = true
	c.dialMu.Unlock()

	token := c.client.Connect()

	go func() {
		defer func() {
			c.dialMu.Lock()
			c.dialing = false
			c.dialMu.Unlock()
		}()

		if !token.WaitTimeout(defaultConnectTimeout) {
			if onFailure != nil {
				onFailure(fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout))
			}
			return
		}
		if err := token.Error(); err != nil {
			if onFailure != nil {
				onFailure(fmt.Errorf("%w: %w", ErrConnectionFailed, err))
			}
			return
		}
		if onSuccess != nil {
			onSuccess()
		}
	}()

	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// SetOnConnectionLost sets a callback invoked when an established connection
// drops. The error parameter describes why the connection was lost.
func (c *Client) SetOnConnectionLost(callback func(err error)) {
	c.callbackMu.Lock()
	c.onConnectionLost = callback
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for handler error and panic logging.
// If not set, errors in handlers are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Close disconnects from the MQTT broker, waiting briefly for pending
// operations. Closing a disconnected client is not an error.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

// wrapHandler wraps a MessageHandler with panic recovery and optional logging.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("MQTT handler returned error",
					"topic", msg.Topic(),
					"error", err,
				)
			}
		}
	}
}
