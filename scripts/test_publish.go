//go:build ignore
// +build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Step struct {
	HTMLInstructions string   `json:"html_instructions"`
	TravelMode       string   `json:"travel_mode"`
	StartLocation    Location `json:"start_location"`
	EndLocation      Location `json:"end_location"`
}

type Leg struct {
	Steps []Step `json:"steps"`
}

type Route struct {
	Summary string `json:"summary"`
	Legs    []Leg  `json:"legs"`
}

type RouteScoreEvent struct {
	RequestID uuid.UUID `json:"request_id"`
	Routes    []Route   `json:"routes"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6380", "Redis address for streams")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Test event (short walking route in lower Manhattan)
	event := RouteScoreEvent{
		RequestID: uuid.New(),
		Routes: []Route{
			{
				Summary: "Broadway",
				Legs: []Leg{
					{
						Steps: []Step{
							{
								HTMLInstructions: "Head <b>north</b> on Broadway",
								TravelMode:       "WALKING",
								StartLocation:    Location{Lat: 40.7074, Lng: -74.0113},
								EndLocation:      Location{Lat: 40.7090, Lng: -74.0107},
							},
							{
								HTMLInstructions: "Turn <b>right</b> onto Fulton St",
								TravelMode:       "WALKING",
								StartLocation:    Location{Lat: 40.7090, Lng: -74.0107},
								EndLocation:      Location{Lat: 40.7101, Lng: -74.0078},
							},
						},
					},
				},
			},
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// Publish to the scoring stream
	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:route:score",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("✅ Event published successfully!\n")
	fmt.Printf("   Stream: stream:route:score\n")
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Request ID: %s\n", event.RequestID)
	fmt.Printf("   Routes: %d\n", len(event.Routes))

	fmt.Printf("\n⏳ Waiting for response in stream:route:score:done...\n")

	timeout := time.After(30 * time.Second)
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			fmt.Println("❌ Timeout waiting for response")
			return
		case <-ticker.C:
			results, err := client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{"stream:route:score:done", "0"},
				Count:   10,
				Block:   0,
			}).Result()

			if err != nil && err != redis.Nil {
				continue
			}

			for _, stream := range results {
				for _, msg := range stream.Messages {
					dataStr, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}

					var response map[string]interface{}
					if err := json.Unmarshal([]byte(dataStr), &response); err != nil {
						continue
					}

					if reqID, ok := response["request_id"].(string); ok {
						if reqID == event.RequestID.String() {
							fmt.Printf("\n✅ Response received!\n")
							prettyJSON, _ := json.MarshalIndent(response, "", "  ")
							fmt.Printf("%s\n", prettyJSON)
							return
						}
					}
				}
			}
		}
	}
}
