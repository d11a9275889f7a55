// route-cli строит маршрут по файлу таблицы мира без запуска сервера.
//
//	route-cli -world assets/world.yaml -from 1:20,20 -to 2:20,20
//	route-cli -world assets/world.yaml -from 1:20,20 -chat "Middle La Noscea ( 20 , 20 )"
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/annel0/aetherlink/internal/chatlink"
	"github.com/annel0/aetherlink/internal/route"
	"github.com/annel0/aetherlink/internal/vec"
	"github.com/annel0/aetherlink/internal/world"
	"github.com/annel0/aetherlink/internal/worlddata"
)

func main() {
	var (
		worldPath = flag.String("world", "assets/world.yaml", "World table file (YAML or JSON)")
		fromArg   = flag.String("from", "", "Traveler location zone:x,y")
		toArg     = flag.String("to", "", "Target zone:x,y")
		chatMsg   = flag.String("chat", "", "Chat message with a map link (instead of -to)")
		pref      = flag.String("pref", "", "Gateway preference for cross-region routes")
		region    = flag.Uint("region", 0, "Traveler region override")
		group     = flag.Uint("group", 0, "Traveler network group")
		asJSON    = flag.Bool("json", false, "Print leg records as JSON")
		check     = flag.Bool("check", false, "Only validate the world table")
	)
	flag.Parse()

	raw, err := os.ReadFile(*worldPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := worlddata.Validate(raw); err != nil {
		log.Fatalf("❌ Таблица мира не прошла схему: %v", err)
	}
	data, err := worlddata.Parse(raw)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	g, err := world.NewGraph(data)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if *check {
		fmt.Printf("✅ %+v\n", g.Stats())
		return
	}

	fromZone, fromPos, err := parsePoint(*fromArg)
	if err != nil {
		log.Fatalf("❌ -from: %v", err)
	}
	from := route.Location{Zone: fromZone, Position: fromPos, Region: world.RegionID(*region), NetworkGroup: uint32(*group)}

	var to route.Target
	switch {
	case *chatMsg != "":
		link, ok := chatlink.NewScanner(g).Find(*chatMsg)
		if !ok {
			log.Fatalf("❌ В сообщении нет ссылки на известную зону")
		}
		to = link.Target()
		fmt.Printf("🔗 %s → зона %d (%.1f, %.1f)\n", link.Raw, to.Zone, to.Position.X, to.Position.Y)
	case *toArg != "":
		zone, pos, err := parsePoint(*toArg)
		if err != nil {
			log.Fatalf("❌ -to: %v", err)
		}
		to = route.Target{Zone: zone, Position: pos}
	default:
		log.Fatalf("❌ Нужен -to или -chat")
	}

	var prefKey *world.PreferenceKey
	if *pref != "" {
		p := world.PreferenceKey(*pref)
		prefKey = &p
	}

	r := route.NewSolver(g).Solve(from, to, prefKey)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r.Records()); err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}
	if len(r) == 0 {
		fmt.Println("Телепорт не нужен или цель недостижима")
		return
	}
	fmt.Println(chatlink.Render(g, r))
	if d, ok := route.DistanceToTarget(r, to); ok {
		fmt.Printf("прыжков: %d, остаток пешком: %.1f\n", r.Hops(), d)
	}
}

// parsePoint разбирает "zone:x,y"
func parsePoint(s string) (world.ZoneID, vec.Vec2Float, error) {
	zonePart, coords, ok := strings.Cut(s, ":")
	if !ok {
		return 0, vec.Vec2Float{}, fmt.Errorf("ожидается zone:x,y, получено %q", s)
	}
	zone, err := strconv.ParseUint(zonePart, 10, 32)
	if err != nil {
		return 0, vec.Vec2Float{}, fmt.Errorf("зона %q: %w", zonePart, err)
	}
	xs, ys, ok := strings.Cut(coords, ",")
	if !ok {
		return 0, vec.Vec2Float{}, fmt.Errorf("координаты %q", coords)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, vec.Vec2Float{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, vec.Vec2Float{}, err
	}
	return world.ZoneID(zone), vec.Vec2Float{X: x, Y: y}, nil
}
