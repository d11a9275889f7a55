// event-cli следит за событиями сервиса в JetStream.
//
//	event-cli -nats nats://127.0.0.1:4222 -types TeleportCommand
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/aetherlink/internal/eventbus"
	"github.com/annel0/aetherlink/internal/teleport"
)

const timeFormat = "2006-01-02T15:04:05Z"

func main() {
	var (
		natsURL    = flag.String("nats", "nats://127.0.0.1:4222", "NATS server URL")
		stream     = flag.String("stream", "TELEPORT", "JetStream stream name")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		travelers  = flag.String("travelers", "", "Traveler IDs filter (comma-separated)")
		verbose    = flag.Bool("v", false, "Print raw payload")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	travelerFilter := parseStringList(*travelers)
	filter := eventbus.Filter{Types: parseStringList(*eventTypes)}

	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		if len(travelerFilter) > 0 && !contains(travelerFilter, ev.CorrelationID) {
			return
		}
		printEvent(ev, *verbose)
	})
	if err != nil {
		log.Fatalf("❌ Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	fmt.Printf("📡 Following %s on %s (Ctrl+C to stop)\n", *stream, *natsURL)
	<-ctx.Done()

	s := bus.Metrics()
	fmt.Printf("\n📊 consumed=%d\n", s.Consumed)
}

func printEvent(ev *eventbus.Envelope, verbose bool) {
	line := fmt.Sprintf("%s %-16s %s", ev.Timestamp.UTC().Format(timeFormat), ev.EventType, ev.CorrelationID)
	if ev.EventType == eventbus.EventTeleportCommand {
		var cmd teleport.Command
		if err := json.Unmarshal(ev.Payload, &cmd); err == nil {
			line += fmt.Sprintf(" %s anchor=%d zone=%d", cmd.Kind, cmd.AnchorID, cmd.Zone)
			if cmd.DestinationRegion != 0 {
				line += fmt.Sprintf(" → region %d", cmd.DestinationRegion)
			}
		}
	}
	fmt.Println(line)
	if verbose {
		fmt.Printf("    %s\n", string(ev.Payload))
	}
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
