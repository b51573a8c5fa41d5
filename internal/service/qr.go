package service

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	qrcode "github.com/skip2/go-qrcode"
)

var qrCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "anyshare_qr_cache_total",
	Help: "QR code cache lookups by result (hit, miss).",
}, []string{"result"})

// QRService renders share URLs as PNG QR codes.
// Rendered images are kept in an LRU for at most one record lifetime, after which
// the link they encode is dead anyway.
type QRService struct {
	size  int
	cache *expirable.LRU[string, []byte]
}

// NewQRService creates a renderer producing size x size images.
func NewQRService(size, cacheSize int, ttl time.Duration) *QRService {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	return &QRService{
		size:  size,
		cache: expirable.NewLRU[string, []byte](cacheSize, nil, ttl),
	}
}

// PNG returns the QR code for content.
func (q *QRService) PNG(content string) ([]byte, error) {
	if png, ok := q.cache.Get(content); ok {
		qrCacheTotal.WithLabelValues("hit").Inc()
		return png, nil
	}
	qrCacheTotal.WithLabelValues("miss").Inc()

	png, err := qrcode.Encode(content, qrcode.Medium, q.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	q.cache.Add(content, png)
	return png, nil
}

// DataURL returns the QR code as an inline "data:image/png;base64," URL.
func (q *QRService) DataURL(content string) (string, error) {
	png, err := q.PNG(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
