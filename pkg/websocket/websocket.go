package websocketPkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"sync"
	"time"

	"BibliotecaAI/internal/entity"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// IDetector sends frames to a remote detection service over one long-lived
// websocket connection.
type IDetector interface {
	Predict(ctx context.Context, images []image.Image) ([]entity.DetectionResult, error)
	IsConnected() bool
	Reconnect() error
	Close() error
}

type remoteDetection struct {
	BBox       []float64 `json:"bbox"`
	Confidence float64   `json:"conf"`
	ClassID    int       `json:"class_id,omitempty"`
}

type remoteResult struct {
	Detections []remoteDetection `json:"detections"`
	Error      string            `json:"error,omitempty"`
}

type webSocketClient struct {
	url          string
	conn         *websocket.Conn
	mu           sync.Mutex
	log          *logrus.Logger
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewDetectorClient(logger *logrus.Logger) (IDetector, error) {
	url := os.Getenv("DETECTOR_WS_URL")
	if url == "" {
		return nil, errors.New("DETECTOR_WS_URL is required for the remote detector")
	}

	client := &webSocketClient{
		url:          url,
		log:          logger,
		pingInterval: 30 * time.Second,
		readTimeout:  30 * time.Second,
		writeTimeout: 10 * time.Second,
	}

	go client.connectInBackground()

	return client, nil
}

func (c *webSocketClient) connectInBackground() {
	if err := c.Reconnect(); err != nil {
		c.log.Warnf("Initial connection to detection service failed: %v. Will retry on demand.", err)
	} else {
		c.log.Info("Successfully connected to detection service")
	}
}

func (c *webSocketClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *webSocketClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnectLocked()
}

func (c *webSocketClient) reconnectLocked() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	c.log.Infof("Connecting to detection service at %s", c.url)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
		if err != nil {
			c.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	c.conn = conn
	go c.keepAlive(conn)

	return nil
}

func (c *webSocketClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout))
		if err != nil {
			c.log.Warnf("Ping failed for detection service, marking connection as dead: %v", err)
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

func (c *webSocketClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *webSocketClient) Predict(ctx context.Context, images []image.Image) ([]entity.DetectionResult, error) {
	results := make([]entity.DetectionResult, 0, len(images))

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
			return nil, fmt.Errorf("image %d: failed to encode frame: %w", i, err)
		}

		result, err := c.processFrame(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// processFrame holds the lock for the whole exchange so replies from
// concurrent requests cannot interleave on the shared connection.
func (c *webSocketClient) processFrame(frame []byte) (entity.DetectionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.reconnectLocked(); err != nil {
			return entity.DetectionResult{}, fmt.Errorf("cannot connect to detection service: %w", err)
		}
	}
	conn := c.conn

	conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	c.log.Debugf("Sending frame of size: %d bytes", len(frame))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.conn = nil
		conn.Close()
		return entity.DetectionResult{}, fmt.Errorf("error sending frame: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.conn = nil
		conn.Close()
		return entity.DetectionResult{}, fmt.Errorf("error reading detection message: %w", err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	return decodeResult(message)
}

func decodeResult(message []byte) (entity.DetectionResult, error) {
	var raw remoteResult
	if err := jsoniter.Unmarshal(message, &raw); err != nil {
		return entity.DetectionResult{}, fmt.Errorf("error unmarshaling detection response: %w", err)
	}
	if raw.Error != "" {
		return entity.DetectionResult{}, fmt.Errorf("detection service error: %s", raw.Error)
	}

	result := entity.DetectionResult{Detections: make([]entity.Detection, 0, len(raw.Detections))}
	for _, d := range raw.Detections {
		if len(d.BBox) != 4 {
			continue
		}
		result.Detections = append(result.Detections, entity.Detection{
			Box: entity.BoundingBox{
				X1: d.BBox[0],
				Y1: d.BBox[1],
				X2: d.BBox[2],
				Y2: d.BBox[3],
			},
			Confidence: d.Confidence,
			ClassID:    d.ClassID,
		})
	}

	return result, nil
}
