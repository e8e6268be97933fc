// Command wsprobe connects to the live feed as one account, sends a ping and
// prints every event it receives until the timeout.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"tapearn/internal/logger"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server host:port")
	token := flag.String("token", os.Getenv("TOKEN"), "player token")
	wait := flag.Duration("wait", 30*time.Second, "how long to listen")
	flag.Parse()

	if *token == "" {
		logger.Fatal("token is required (-token or TOKEN)")
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: url.Values{"token": {*token}}.Encode()}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logger.Fatal("dial failed", "url", u.Redacted(), "status", status, "error", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		logger.Fatal("write ping failed", "error", err)
	}

	deadline := time.Now().Add(*wait)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			logger.Warn("read ended", "error", err)
			break
		}
		var ev struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(msg, &ev); err != nil {
			fmt.Println(string(msg))
			continue
		}
		fmt.Printf("%s %s %s\n", time.Now().Format(time.TimeOnly), ev.Type, string(ev.Data))
	}
}
