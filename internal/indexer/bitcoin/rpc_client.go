package bitcoin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
	"go.uber.org/ratelimit"
)

const (
	// VerbosityDecodedTx makes getblock return transactions decoded inline.
	VerbosityDecodedTx = 2

	maxResponseBytes = 256 << 20
)

// ClientConfig configures a JSON-RPC client.
type ClientConfig struct {
	URL            string
	User           string
	Password       string
	TLS            *TLSFiles
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	// MaxRPS caps outgoing requests per second, 0 means unlimited.
	MaxRPS int
}

// Client speaks JSON-RPC 1.0 over HTTP(S) to a bitcoind-compatible node.
type Client struct {
	httpClient *http.Client
	url        string
	user       string
	password   string
	nextID     atomic.Uint64
	limiter    ratelimit.Limiter
	rpcMetrics RPCMetrics
}

// NewClient builds a client. mTLS material is loaded here so a bad certificate fails fast.
func NewClient(cfg ClientConfig, rpcMetrics RPCMetrics) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("rpc url is required")
	}
	if rpcMetrics == nil {
		return nil, errors.New("rpc metrics is required")
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if cfg.TLS != nil {
		tlsConfig, err := loadTLSConfig(*cfg.TLS)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsConfig
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.MaxRPS > 0 {
		limiter = ratelimit.New(cfg.MaxRPS)
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		url:        cfg.URL,
		user:       cfg.User,
		password:   cfg.Password,
		limiter:    limiter,
		rpcMetrics: rpcMetrics,
	}, nil
}

// Call performs a single JSON-RPC request and returns the raw result.
// It never retries; a failed call is reported exactly once.
func (c *Client) Call(ctx context.Context, method string, params ...interface{}) (result json.RawMessage, err error) {
	started := time.Now()
	defer func() {
		c.rpcMetrics.Observe(method, err, started)
	}()

	id := c.nextID.Add(1)
	request, err := btcjson.NewRequest(btcjson.RpcVersion1, id, method, params)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &model.TransportError{Method: method, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.user, c.password)

	c.limiter.Take()
	if err = ctx.Err(); err != nil {
		return nil, &model.TransportError{Method: method, Err: err}
	}
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &model.TransportError{Method: method, Err: err}
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &model.TransportError{Method: method, Err: fmt.Errorf("unexpected http status %s", httpResp.Status)}
	}

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, &model.TransportError{Method: method, Err: fmt.Errorf("read response: %w", err)}
	}

	var response btcjson.Response
	if err = json.Unmarshal(payload, &response); err != nil {
		return nil, &model.TransportError{Method: method, Err: fmt.Errorf("decode response: %w", err)}
	}
	if response.Error != nil {
		return nil, &model.ProtocolError{Method: method, Code: int(response.Error.Code), Message: response.Error.Message}
	}
	if len(response.Result) == 0 || bytes.Equal(response.Result, []byte("null")) {
		return nil, &model.ProtocolError{Method: method, Message: "missing result"}
	}
	return response.Result, nil
}

// GetBlockCount returns the height of the most-work fully-validated chain.
func (c *Client) GetBlockCount(ctx context.Context) (int64, error) {
	raw, err := c.Call(ctx, "getblockcount")
	if err != nil {
		return 0, err
	}
	var count int64
	if err := unmarshalResult("getblockcount", raw, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetBlockHash resolves the hash of the block at height.
func (c *Client) GetBlockHash(ctx context.Context, height int64) (string, error) {
	raw, err := c.Call(ctx, "getblockhash", height)
	if err != nil {
		return "", err
	}
	var hash string
	if err := unmarshalResult("getblockhash", raw, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// GetBlock fetches a block at the given verbosity and returns the undecoded result.
func (c *Client) GetBlock(ctx context.Context, hash string, verbosity int) (json.RawMessage, error) {
	return c.Call(ctx, "getblock", hash, verbosity)
}

// GetBlockVerboseTx fetches a block with every transaction decoded inline.
func (c *Client) GetBlockVerboseTx(ctx context.Context, hash string) (*VerboseBlock, error) {
	raw, err := c.GetBlock(ctx, hash, VerbosityDecodedTx)
	if err != nil {
		return nil, err
	}
	var block VerboseBlock
	if err := unmarshalResult("getblock", raw, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// GetRawTransaction fetches a transaction by id, decoded when verbose is set.
func (c *Client) GetRawTransaction(ctx context.Context, txid string, verbose bool) (json.RawMessage, error) {
	return c.Call(ctx, "getrawtransaction", txid, verbose)
}

func unmarshalResult(method string, raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return &model.ProtocolError{Method: method, Message: fmt.Sprintf("malformed result: %v", err)}
	}
	return nil
}
