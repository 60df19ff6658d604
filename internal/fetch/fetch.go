// 包 fetch 封装 HTTP 客户端（代理/超时/UA），用于抓取商店页面。
// 每个 URL 只请求一次，不做重试。
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

// DefaultUserAgent 为常见桌面浏览器 UA，减少 403/反爬误判。
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// 页面正文读取上限
const maxBody = 8 << 20

// Client 为单次请求的 HTTP 客户端。
type Client struct {
	http *http.Client
	ua   string
}

// Options 为客户端构造参数。
type Options struct {
	ProxyHTTP  string
	ProxyHTTPS string
	Timeout    time.Duration
	UserAgent  string
}

// New 创建客户端，支持 http/https 代理与整体超时配置。
func New(opts Options) (*Client, error) {
	var httpProxy, httpsProxy *url.URL
	if opts.ProxyHTTP != "" {
		u, err := url.Parse(opts.ProxyHTTP)
		if err != nil {
			return nil, fmt.Errorf("parse http proxy: %w", err)
		}
		httpProxy = u
	}
	if opts.ProxyHTTPS != "" {
		u, err := url.Parse(opts.ProxyHTTPS)
		if err != nil {
			return nil, fmt.Errorf("parse https proxy: %w", err)
		}
		httpsProxy = u
	}
	transport := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if req.URL.Scheme == "https" && httpsProxy != nil {
				return httpsProxy, nil
			}
			if req.URL.Scheme == "http" && httpProxy != nil {
				return httpProxy, nil
			}
			return http.ProxyFromEnvironment(req)
		},
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 25 * time.Second
	}
	// UA 优先级：参数 > 环境变量 ASR_UA > 默认值
	ua := opts.UserAgent
	if ua == "" {
		ua = os.Getenv("ASR_UA")
	}
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &Client{
		http: &http.Client{Transport: transport, Timeout: opts.Timeout},
		ua:   ua,
	}, nil
}

// Fetch 发起一次 GET，2xx 时返回正文文本，否则返回 *NetworkError。
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &NetworkError{URL: rawURL, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9,en;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &NetworkError{URL: rawURL, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &NetworkError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("http status: %s", resp.Status)}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return "", &NetworkError{URL: rawURL, Timeout: isTimeout(err), Err: fmt.Errorf("read body: %w", err)}
	}
	if len(b) > maxBody {
		return "", &NetworkError{URL: rawURL, Err: ErrBodyTooLarge}
	}
	return string(b), nil
}

// ErrBodyTooLarge 表示响应正文超过 8 MiB 上限。
var ErrBodyTooLarge = errors.New("body too large")

// NetworkError 表示抓取失败：超时、连接错误或非 2xx 状态。
type NetworkError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

// Error 返回便于写入错误记录的简短原因。
func (e *NetworkError) Error() string {
	switch {
	case e.Timeout:
		return "timeout"
	case e.StatusCode != 0:
		return fmt.Sprintf("http status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "network error"
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
