// History Viewer - live feed of completed translations
// Consumes translation.completed from Kafka and pushes it to browsers over WebSocket
package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

//go:embed static/*
var staticFiles embed.FS

// HistoryEntry mirrors the entry carried by translation.completed.
type HistoryEntry struct {
	ID             string `json:"id"`
	SourceText     string `json:"sourceText"`
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	Timestamp      int64  `json:"timestamp"`
}

// TranslationEvent is a translation.completed message.
type TranslationEvent struct {
	EventType      string       `json:"eventType"`
	EventID        string       `json:"eventId"`
	Principal      string       `json:"principal"`
	Flow           string       `json:"flow"`
	Timestamp      int64        `json:"timestamp"`
	Entry          HistoryEntry `json:"entry"`
	Style          string       `json:"style"`
	AudioAvailable bool         `json:"audioAvailable"`
	AudioBytes     int          `json:"audioBytes"`
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func consumeKafka(ctx context.Context, hub *Hub, brokers, topic string, since time.Duration) {
	// Partition reader without consumer group (works better through port-forward)
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   strings.Split(brokers, ","),
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	if err := reader.SetOffsetAt(ctx, time.Now().Add(-since)); err != nil {
		log.Printf("Seek error on %s: %v", topic, err)
	}

	log.Printf("Consuming from Kafka topic: %s partition 0 (last %s)", topic, since)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Kafka read error on %s: %v", topic, err)
			time.Sleep(time.Second)
			continue
		}

		event, ok := decodeEvent(msg.Value)
		if !ok {
			continue
		}

		log.Printf("Received %s %s→%s: %s", event.Flow, event.Entry.SourceLanguage, event.Entry.TargetLanguage,
			truncate(event.Entry.TranslatedText, 40))
		hub.Publish(event)
	}
}

// decodeEvent parses a message and drops anything that is not a
// translation.completed event.
func decodeEvent(value []byte) (TranslationEvent, bool) {
	var event TranslationEvent
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("JSON unmarshal error: %v", err)
		return TranslationEvent{}, false
	}
	if event.EventType != "translation.completed" {
		return TranslationEvent{}, false
	}
	return event, true
}

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "translation.completed", "Translation event topic")
	since := flag.Duration("since", time.Hour, "Replay events newer than this on start")
	keep := flag.Int("keep", 50, "Recent translations replayed to new browsers")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := NewHub(*keep)
	go hub.Run(ctx)
	go consumeKafka(ctx, hub, *brokers, *topic, *since)

	mux := http.NewServeMux()
	staticFS, _ := fs.Sub(staticFiles, "static")
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", wsHandler(hub))
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(hub.Recent())
	})

	srv := &http.Server{Addr: ":" + *port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("History Viewer starting on http://localhost:%s", *port)
	log.Printf("   Kafka brokers: %s", *brokers)
	log.Printf("   Topic: %s", *topic)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
