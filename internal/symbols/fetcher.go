package symbols

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// LoadSource loads the symbol master from src, which may be a local
// filesystem path or an http(s):// URL. A URL is fetched with a resty
// client that retries on a transport error or a 5xx status before the body
// is handed to Load unchanged; a bare path is opened directly via LoadFile.
func (r *Registry) LoadSource(src string, fetchTimeout time.Duration) bool {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return r.LoadFile(src)
	}

	client := resty.New().
		SetTimeout(fetchTimeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= 500
		})

	resp, err := client.R().Get(src)
	if err != nil || resp.IsError() {
		r.logger.Warn("symbol master fetch failed, loading default instrument set",
			"source", src, "err", err, "status", statusOf(resp))
		r.loadDefaults()
		return true
	}

	r.Load(bytes.NewReader(resp.Body()))
	return true
}

func statusOf(resp *resty.Response) string {
	if resp == nil {
		return ""
	}
	return fmt.Sprintf("%d", resp.StatusCode())
}
