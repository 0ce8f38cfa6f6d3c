// Package main runs a demo WebSocket client against the solve endpoint.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
)

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/solve/ws"}
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_demo")
	hdr.Set("X-Role", "admin")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	solve := map[string]any{
		"problem": map[string]any{
			"name": "demo",
			"matrix": [][]int64{
				{0, 10, 15, 20, 12},
				{10, 0, 35, 25, 18},
				{15, 35, 0, 30, 22},
				{20, 25, 30, 0, 16},
				{12, 18, 22, 16, 0},
			},
			"demands":    []int64{0, 1, 1, 2, 4},
			"capacities": []int64{5, 5},
			"depot":      0,
		},
		"timeBudgetMs": 500,
		"seed":         1,
	}
	data, _ := json.Marshal(solve)
	if err := c.WriteJSON(wsFrame{Type: "solve", Data: data}); err != nil {
		log.Fatal(err)
	}

	for {
		var f wsFrame
		if err := c.ReadJSON(&f); err != nil {
			log.Printf("read: %v", err)
			return
		}
		fmt.Printf("WS <- %s: %s\n", f.Type, string(f.Data))
		if f.Type == "solution" || f.Type == "error" {
			return
		}
	}
}
