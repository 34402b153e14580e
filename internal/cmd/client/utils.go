package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// wsAddrFromEnv returns the viewer WebSocket URL from PHOLLOW_WS or a
// default.
func wsAddrFromEnv() string {
	if addr := os.Getenv("PHOLLOW_WS"); addr != "" {
		return addr
	}
	return "ws://127.0.0.1:8081"
}

// getJSON fetches url and decodes the JSON body into out. Non-2xx responses
// surface the server's error message.
func getJSON(url string, out any) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errorFromResponse(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// doDelete issues a DELETE and decodes the JSON body into out.
func doDelete(url string, out any) error {
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errorFromResponse(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func errorFromResponse(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, body.Error)
	}
	return fmt.Errorf("unexpected status %s", resp.Status)
}
