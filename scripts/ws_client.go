// Package main runs a demo WebSocket client for plan events: it seeds a
// cargo item, opens the event stream, triggers a plan and prints what
// arrives.
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

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Seed one cargo item
	body := []byte(`{"name":"demo pallet","length":1.2,"width":0.8,"height":1.0,"weight":0.4}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/cargo", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", "admin")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("create cargo: %s", resp.Status)
	}

	// Connect the event stream before planning
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/loads/events/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var evt map[string]any
			if err := c.ReadJSON(&evt); err != nil {
				return
			}
			out, _ := json.Marshal(evt)
			log.Printf("event: %s", out)
		}
	}()

	// Trigger a plan
	req, _ = http.NewRequest(http.MethodPost, base+"/v1/plan", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", "dispatcher")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	log.Printf("plan: %s", resp.Status)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Println("done waiting for events")
	}
}
