package dispatcher

import (
	"crypto/tls"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
)

// HTTPPool holds pre-built fasthttp clients used for REST reachability
// checks. Message delivery itself goes through the discordgo session.
type HTTPPool struct {
	clients []*fasthttp.Client
	size    uint32
	index   uint32
	timeout time.Duration
}

func NewHTTPPool(size int) *HTTPPool {
	if size < 1 {
		size = 1
	}
	clients := make([]*fasthttp.Client, size)

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ClientSessionCache: tls.NewLRUClientSessionCache(32),
	}

	for i := 0; i < size; i++ {
		clients[i] = &fasthttp.Client{
			MaxConnsPerHost:     16,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         5 * time.Second,
			WriteTimeout:        5 * time.Second,
			MaxConnWaitTimeout:  time.Second,

			MaxResponseBodySize:       1 << 20,
			MaxIdemponentCallAttempts: 1,

			TLSConfig:                tlsConfig,
			NoDefaultUserAgentHeader: true,
		}
	}

	return &HTTPPool{
		clients: clients,
		size:    uint32(size),
		timeout: 5 * time.Second,
	}
}

func (hp *HTTPPool) GetClient() *fasthttp.Client {
	i := atomic.AddUint32(&hp.index, 1) - 1
	return hp.clients[i%hp.size]
}

// ProbeResult is the outcome of a single GET.
type ProbeResult struct {
	StatusCode int
	Latency    time.Duration
}

// Probe issues a GET against url and measures the round trip.
func (hp *HTTPPool) Probe(url string) (ProbeResult, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", "DiscordBot (go-logbot, 1.0)")

	start := time.Now()
	if err := hp.GetClient().DoTimeout(req, resp, hp.timeout); err != nil {
		return ProbeResult{}, fmt.Errorf("probe %s: %w", url, err)
	}
	return ProbeResult{StatusCode: resp.StatusCode(), Latency: time.Since(start)}, nil
}
