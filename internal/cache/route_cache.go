package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/annel0/aetherlink/internal/route"
	"github.com/annel0/aetherlink/internal/world"
)

// RouteCache кеширует решённые маршруты как записи шагов.
// Ключ включает версию таблицы мира: после перезагрузки мира старые записи не читаются.
type RouteCache struct {
	repo    CacheRepo
	ttl     time.Duration
	version atomic.Value // string
}

// NewRouteCache создаёт кеш маршрутов поверх CacheRepo
func NewRouteCache(repo CacheRepo, ttl time.Duration, worldVersion string) *RouteCache {
	rc := &RouteCache{repo: repo, ttl: ttl}
	rc.version.Store(worldVersion)
	return rc
}

// SetWorldVersion переключает кеш на новую версию таблицы мира
func (rc *RouteCache) SetWorldVersion(v string) {
	rc.version.Store(v)
}

// WorldVersion текущая версия таблицы мира
func (rc *RouteCache) WorldVersion() string {
	return rc.version.Load().(string)
}

// Key строит ключ запроса маршрута. Координаты записываются точно:
// запросы, различающиеся хоть в одном бите позиции, не делят запись.
func (rc *RouteCache) Key(from route.Location, to route.Target, pref *world.PreferenceKey) string {
	var b strings.Builder
	fmt.Fprintf(&b, "route:%s:%d:%s:%s:%d:%d>%d:%s:%s",
		rc.WorldVersion(),
		from.Zone, coord(from.Position.X), coord(from.Position.Y), from.Region, from.NetworkGroup,
		to.Zone, coord(to.Position.X), coord(to.Position.Y))
	if pref != nil {
		b.WriteString(":")
		b.WriteString(string(*pref))
	}
	return b.String()
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Get возвращает сохранённые шаги. ok == false при промахе.
func (rc *RouteCache) Get(ctx context.Context, key string) ([]route.LegRecord, bool, error) {
	raw, err := rc.repo.Get(ctx, key)
	if IsCacheMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var recs []route.LegRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		// повреждённая запись считается промахом
		_ = rc.repo.Delete(ctx, key)
		return nil, false, nil
	}
	return recs, true, nil
}

// Put сохраняет маршрут. Пустой маршрут тоже кешируется.
func (rc *RouteCache) Put(ctx context.Context, key string, r route.Route) error {
	recs := r.Records()
	raw, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return rc.repo.Set(ctx, key, raw, rc.ttl)
}

// Invalidate удаляет маршрут на всех узлах
func (rc *RouteCache) Invalidate(ctx context.Context, key string) error {
	return rc.repo.Invalidate(ctx, key)
}

// Metrics метрики нижележащего кеша
func (rc *RouteCache) Metrics() CacheMetrics {
	return rc.repo.GetMetrics()
}
