package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annel0/aetherlink/internal/service"
	"github.com/annel0/aetherlink/internal/teleport"
	"github.com/annel0/aetherlink/internal/world"
)

// handleSolveRoute строит маршрут между точками
func (rs *RestServer) handleSolveRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Неверный JSON: "+err.Error())
		return
	}
	if req.From.Zone == 0 || req.To.Zone == 0 {
		abort(c, http.StatusBadRequest, "Не указаны зоны from.zone и to.zone")
		return
	}

	r, err := rs.svc.SolveRoute(c.Request.Context(), req.From, req.To, prefFrom(req.Preference))
	if err != nil {
		abort(c, http.StatusServiceUnavailable, err.Error())
		return
	}

	msg := "Маршрут построен"
	if len(r) == 0 {
		msg = "Телепорт не нужен или цель недостижима"
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: msg,
		Data:    routeView(r, rs.svc.Render(r), rs.svc.Version()),
	})
}

// handleSolveChat строит маршрут до первой ссылки на карту в сообщении
func (rs *RestServer) handleSolveChat(c *gin.Context) {
	var req ChatRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Неверный JSON: "+err.Error())
		return
	}

	r, link, err := rs.svc.SolveFromChat(c.Request.Context(), req.From, req.Message, prefFrom(req.Preference))
	switch {
	case errors.Is(err, service.ErrNoChatLink):
		abort(c, http.StatusUnprocessableEntity, "В сообщении нет ссылки на известную зону")
		return
	case err != nil:
		abort(c, http.StatusServiceUnavailable, err.Error())
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Маршрут построен",
		Data: gin.H{
			"link":  LinkView{Zone: link.Zone.ID, ZoneName: link.Zone.Name, Position: link.Position},
			"route": routeView(r, rs.svc.Render(r), rs.svc.Version()),
		},
	})
}

// handleZoneAnchors список якорей зоны
func (rs *RestServer) handleZoneAnchors(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		abort(c, http.StatusBadRequest, "Неверный идентификатор зоны")
		return
	}
	g := rs.svc.Graph()
	zone, ok := g.Zone(world.ZoneID(id))
	if !ok {
		abort(c, http.StatusNotFound, "Зона не найдена")
		return
	}

	anchors := g.AnchorsInZone(zone.ID)
	out := make([]world.Anchor, len(anchors))
	for i, a := range anchors {
		out[i] = *a
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: zone.Name,
		Data:    gin.H{"zone": zone, "anchors": out},
	})
}

// handleWorld сводка по загруженной таблице мира
func (rs *RestServer) handleWorld(c *gin.Context) {
	g := rs.svc.Graph()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Таблица мира",
		Data: gin.H{
			"version":     rs.svc.Version(),
			"stats":       g.Stats(),
			"preferences": g.Preferences(),
		},
	})
}

// handleExecuteLeg выполняет один шаг маршрута от имени путника
func (rs *RestServer) handleExecuteLeg(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Неверный JSON: "+err.Error())
		return
	}
	state, ok := rs.authorizeState(c, req.State)
	if !ok {
		return
	}

	if err := rs.svc.ExecuteLeg(c.Request.Context(), req.Leg, state); err != nil {
		rs.respondExecutionError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, GenericResponse{Success: true, Message: "Команда телепорта отправлена"})
}

// handleTeleportHome телепорт на домашний шлюз
func (rs *RestServer) handleTeleportHome(c *gin.Context) {
	var req HomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Неверный JSON: "+err.Error())
		return
	}
	state, ok := rs.authorizeState(c, req.State)
	if !ok {
		return
	}

	err := rs.svc.TeleportHome(c.Request.Context(), state)
	if errors.Is(err, service.ErrNoHomePreference) {
		abort(c, http.StatusNotImplemented, "Домашний шлюз не настроен")
		return
	}
	if err != nil {
		rs.respondExecutionError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, GenericResponse{Success: true, Message: "Команда телепорта отправлена"})
}

// handleLocation последнее известное положение путника
func (rs *RestServer) handleLocation(c *gin.Context) {
	travelerID := c.Param("id")
	if claims := claimsFrom(c); claims == nil || !claims.MayActFor(travelerID) {
		abort(c, http.StatusForbidden, "Недостаточно прав доступа")
		return
	}

	loc, err := rs.svc.LastLocation(c.Request.Context(), travelerID)
	switch {
	case errors.Is(err, service.ErrUnknownTraveler):
		abort(c, http.StatusNotFound, "Положение путника неизвестно")
	case err != nil:
		abort(c, http.StatusServiceUnavailable, err.Error())
	default:
		c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Положение путника", Data: loc})
	}
}

// handleServerInfo возвращает информацию о сервере
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	info := rs.metrics.Snapshot()
	info.WorldVersion = rs.svc.Version()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    info,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"world":  rs.svc.Version(),
		"time":   time.Now().Unix(),
	})
}

// authorizeState подставляет путника из токена и проверяет право действовать за него
func (rs *RestServer) authorizeState(c *gin.Context, sv StateView) (teleport.TravelerState, bool) {
	claims := claimsFrom(c)
	if claims == nil {
		abort(c, http.StatusUnauthorized, "Отсутствует информация о путнике")
		return teleport.TravelerState{}, false
	}
	if sv.TravelerID == "" {
		sv.TravelerID = claims.TravelerID
	}
	if !claims.MayActFor(sv.TravelerID) {
		abort(c, http.StatusForbidden, "Недостаточно прав доступа")
		return teleport.TravelerState{}, false
	}
	return sv.toState(), true
}

func (rs *RestServer) respondExecutionError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case teleport.IsForbidden(err):
		status = http.StatusConflict
	case teleport.IsNotExecutable(err):
		status = http.StatusBadRequest
	case teleport.IsAnchorUnavailable(err):
		status = http.StatusUnprocessableEntity
	case teleport.IsDispatch(err):
		status = http.StatusBadGateway
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, GenericResponse{
		Success: false,
		Message: err.Error(),
		Data:    gin.H{"kind": teleport.KindOf(err).String()},
	})
}
