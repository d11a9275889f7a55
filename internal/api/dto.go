package api

import (
	"github.com/annel0/aetherlink/internal/route"
	"github.com/annel0/aetherlink/internal/teleport"
	"github.com/annel0/aetherlink/internal/vec"
	"github.com/annel0/aetherlink/internal/world"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RouteRequest запрос маршрута
type RouteRequest struct {
	From       route.Location `json:"from"`
	To         route.Target   `json:"to"`
	Preference string         `json:"preference,omitempty"`
}

// ChatRouteRequest запрос маршрута до ссылки из сообщения чата
type ChatRouteRequest struct {
	From       route.Location `json:"from"`
	Message    string         `json:"message" binding:"required"`
	Preference string         `json:"preference,omitempty"`
}

// LegView шаг маршрута для клиента: запись для повторной отправки плюс подписи
type LegView struct {
	route.LegRecord
	Name        string       `json:"name,omitempty"`
	ArrivalZone world.ZoneID `json:"arrival_zone"`
}

// RouteView ответ с маршрутом
type RouteView struct {
	Legs         []LegView `json:"legs"`
	Hops         int       `json:"hops"`
	Text         string    `json:"text"`
	WorldVersion string    `json:"world_version"`
}

// LinkView найденная в чате ссылка
type LinkView struct {
	Zone     world.ZoneID  `json:"zone"`
	ZoneName string        `json:"zone_name"`
	Position vec.Vec2Float `json:"position"`
}

// StateView состояние путника в запросе
type StateView struct {
	TravelerID string         `json:"traveler_id"`
	Location   route.Location `json:"location"`
	Conditions []string       `json:"conditions,omitempty"`
}

func (s StateView) toState() teleport.TravelerState {
	return teleport.TravelerState{
		TravelerID: s.TravelerID,
		Location:   s.Location,
		Conditions: teleport.ParseConditions(s.Conditions),
	}
}

// ExecuteRequest запрос выполнения шага
type ExecuteRequest struct {
	Leg   route.LegRecord `json:"leg"`
	State StateView       `json:"state"`
}

// HomeRequest запрос телепорта на домашний шлюз
type HomeRequest struct {
	State StateView `json:"state"`
}

func prefFrom(s string) *world.PreferenceKey {
	if s == "" {
		return nil
	}
	p := world.PreferenceKey(s)
	return &p
}

func legName(leg route.PathLeg) string {
	if a, ok := route.AnchorOf(leg); ok {
		return a.Name
	}
	if b, ok := leg.(route.BoundaryLeg); ok {
		return b.Connector.Label
	}
	return ""
}

func routeView(r route.Route, text, version string) RouteView {
	recs := r.Records()
	legs := make([]LegView, len(r))
	for i, leg := range r {
		legs[i] = LegView{LegRecord: recs[i], Name: legName(leg), ArrivalZone: leg.ArrivalZone()}
	}
	return RouteView{Legs: legs, Hops: r.Hops(), Text: text, WorldVersion: version}
}
