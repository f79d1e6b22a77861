package probe

import (
	"fmt"
	"net/http"
	"time"
)

// CheckHealth performs the HTTP preflight check: a GET against url that
// must answer 200 OK within the timeout. It guards a suite run against an
// API server that is not up at all, which would otherwise surface as a
// wall of handshake failures.
func CheckHealth(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("probe: preflight %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe: preflight %s: unexpected status %s", url, resp.Status)
	}
	return nil
}
