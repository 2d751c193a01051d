// Package main runs a demo WebSocket client for solve progress events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Submit an async solve over a small inline matrix
	body := []byte(`{
		"tenantId": "t_demo",
		"distanceMatrix": [
			[0, 5, 8, 6],
			[5, 0, 4, 7],
			[8, 4, 0, 3],
			[6, 7, 3, 0]
		],
		"numVehicles": 2,
		"params": {"populationSize": 50, "maxGenerations": 100, "mutationRate": 0.02, "elitismSize": 2, "seed": 7},
		"async": true
	}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/solves", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", "t_demo")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var solve struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&solve); err != nil {
		log.Fatal(err)
	}
	if solve.ID == "" {
		log.Fatal("no solve id returned")
	}
	log.Printf("Solve ID: %s", solve.ID)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/solves/ws"}
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_demo")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	// connection_init
	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal(err)
	}
	// subscribe to solve progress
	pl, _ := json.Marshal(map[string]any{"solveId": solve.ID})
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: pl}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	// Wait for the worker to pick up the solve and stream progress
	select {
	case <-time.After(10 * time.Second):
	case <-done:
	}
}
