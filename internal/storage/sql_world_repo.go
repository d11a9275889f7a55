package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/annel0/aetherlink/internal/vec"
	"github.com/annel0/aetherlink/internal/world"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Диалекты SQL хранилища
const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
)

// SQLWorldRepo реализует WorldRepo для MariaDB/MySQL и SQLite.
// Таблица мира хранится в таблицах world_regions, world_zones, world_anchors,
// world_connectors и world_gateways.
type SQLWorldRepo struct {
	db      *sql.DB
	dialect string
}

// NewMariaWorldRepo создает репозиторий таблицы мира для MariaDB.
// Автоматически создает таблицы, если они не существуют.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaWorldRepo(dsn string) (*SQLWorldRepo, error) {
	return openSQLWorldRepo(DialectMySQL, dsn)
}

// NewSQLiteWorldRepo создает репозиторий таблицы мира для SQLite
// (путь к файлу или "file::memory:?cache=shared").
func NewSQLiteWorldRepo(dsn string) (*SQLWorldRepo, error) {
	return openSQLWorldRepo(DialectSQLite, dsn)
}

func openSQLWorldRepo(dialect, dsn string) (*SQLWorldRepo, error) {
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// одно соединение: in-memory база живёт в пределах соединения
		db.SetMaxOpenConns(1)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с %s: %w", dialect, err)
	}

	repo := &SQLWorldRepo{db: db, dialect: dialect}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицы: %w", err)
	}
	return repo, nil
}

// createTables создает таблицы мира, если они не существуют.
func (r *SQLWorldRepo) createTables() error {
	suffix := ""
	if r.dialect == DialectMySQL {
		suffix = " ENGINE=InnoDB"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS world_regions (
			id   INT UNSIGNED PRIMARY KEY,
			name VARCHAR(128) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS world_zones (
			id     INT UNSIGNED PRIMARY KEY,
			name   VARCHAR(128) NOT NULL,
			region INT UNSIGNED NOT NULL,
			min_x  DOUBLE NOT NULL DEFAULT 0,
			min_y  DOUBLE NOT NULL DEFAULT 0,
			max_x  DOUBLE NOT NULL DEFAULT 0,
			max_y  DOUBLE NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS world_anchors (
			id                 INT UNSIGNED PRIMARY KEY,
			zone               INT UNSIGNED NOT NULL,
			x                  DOUBLE NOT NULL,
			y                  DOUBLE NOT NULL,
			name               VARCHAR(128) NOT NULL DEFAULT '',
			is_primary         BOOLEAN NOT NULL DEFAULT FALSE,
			network_group      INT UNSIGNED NOT NULL DEFAULT 0,
			destination_region INT UNSIGNED NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS world_connectors (
			id            INT UNSIGNED PRIMARY KEY,
			from_zone     INT UNSIGNED NOT NULL,
			to_zone       INT UNSIGNED NOT NULL,
			bidirectional BOOLEAN NOT NULL DEFAULT FALSE,
			label         VARCHAR(128) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS world_gateways (
			preference VARCHAR(64) PRIMARY KEY,
			anchor     INT UNSIGNED NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := r.db.Exec(q + suffix); err != nil {
			return fmt.Errorf("ошибка создания таблицы: %w", err)
		}
	}
	return nil
}

// SaveWorld заменяет содержимое таблиц мира в одной транзакции
func (r *SQLWorldRepo) SaveWorld(ctx context.Context, data world.Data) error {
	// Начинаем транзакцию
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback() // Откат в случае ошибки

	for _, table := range []string{"world_gateways", "world_connectors", "world_anchors", "world_zones", "world_regions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("ошибка очистки %s: %w", table, err)
		}
	}

	for _, reg := range data.Regions {
		if _, err := tx.ExecContext(ctx, `INSERT INTO world_regions (id, name) VALUES (?, ?)`, reg.ID, reg.Name); err != nil {
			return fmt.Errorf("ошибка сохранения региона %d: %w", reg.ID, err)
		}
	}
	for _, z := range data.Zones {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO world_zones (id, name, region, min_x, min_y, max_x, max_y) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			z.ID, z.Name, z.Region, z.Bounds.Min.X, z.Bounds.Min.Y, z.Bounds.Max.X, z.Bounds.Max.Y)
		if err != nil {
			return fmt.Errorf("ошибка сохранения зоны %d: %w", z.ID, err)
		}
	}
	for _, a := range data.Anchors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO world_anchors (id, zone, x, y, name, is_primary, network_group, destination_region) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Zone, a.Position.X, a.Position.Y, a.Name, a.IsPrimary, a.NetworkGroup, a.DestinationRegion)
		if err != nil {
			return fmt.Errorf("ошибка сохранения якоря %d: %w", a.ID, err)
		}
	}
	for _, c := range data.Connectors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO world_connectors (id, from_zone, to_zone, bidirectional, label) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.From, c.To, c.Bidirectional, c.Label)
		if err != nil {
			return fmt.Errorf("ошибка сохранения перехода %d: %w", c.ID, err)
		}
	}
	for pref, anchor := range data.Gateways {
		if _, err := tx.ExecContext(ctx, `INSERT INTO world_gateways (preference, anchor) VALUES (?, ?)`, string(pref), anchor); err != nil {
			return fmt.Errorf("ошибка сохранения шлюза %q: %w", pref, err)
		}
	}

	// Фиксируем транзакцию
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// LoadWorld читает таблицу мира. Пустые таблицы зон означают, что мир ещё не сохранялся.
func (r *SQLWorldRepo) LoadWorld(ctx context.Context) (world.Data, bool, error) {
	var data world.Data

	err := r.query(ctx, `SELECT id, name FROM world_regions ORDER BY id`, func(rows *sql.Rows) error {
		var reg world.Region
		if err := rows.Scan(&reg.ID, &reg.Name); err != nil {
			return err
		}
		data.Regions = append(data.Regions, reg)
		return nil
	})
	if err != nil {
		return world.Data{}, false, fmt.Errorf("ошибка загрузки регионов: %w", err)
	}

	err = r.query(ctx, `SELECT id, name, region, min_x, min_y, max_x, max_y FROM world_zones ORDER BY id`, func(rows *sql.Rows) error {
		var z world.Zone
		var b vec.Rect
		if err := rows.Scan(&z.ID, &z.Name, &z.Region, &b.Min.X, &b.Min.Y, &b.Max.X, &b.Max.Y); err != nil {
			return err
		}
		z.Bounds = b
		data.Zones = append(data.Zones, z)
		return nil
	})
	if err != nil {
		return world.Data{}, false, fmt.Errorf("ошибка загрузки зон: %w", err)
	}
	if len(data.Zones) == 0 {
		return world.Data{}, false, nil
	}

	err = r.query(ctx, `SELECT id, zone, x, y, name, is_primary, network_group, destination_region FROM world_anchors ORDER BY id`, func(rows *sql.Rows) error {
		var a world.Anchor
		if err := rows.Scan(&a.ID, &a.Zone, &a.Position.X, &a.Position.Y, &a.Name, &a.IsPrimary, &a.NetworkGroup, &a.DestinationRegion); err != nil {
			return err
		}
		data.Anchors = append(data.Anchors, a)
		return nil
	})
	if err != nil {
		return world.Data{}, false, fmt.Errorf("ошибка загрузки якорей: %w", err)
	}

	err = r.query(ctx, `SELECT id, from_zone, to_zone, bidirectional, label FROM world_connectors ORDER BY id`, func(rows *sql.Rows) error {
		var c world.Connector
		if err := rows.Scan(&c.ID, &c.From, &c.To, &c.Bidirectional, &c.Label); err != nil {
			return err
		}
		data.Connectors = append(data.Connectors, c)
		return nil
	})
	if err != nil {
		return world.Data{}, false, fmt.Errorf("ошибка загрузки переходов: %w", err)
	}

	err = r.query(ctx, `SELECT preference, anchor FROM world_gateways`, func(rows *sql.Rows) error {
		var pref string
		var anchor world.AnchorID
		if err := rows.Scan(&pref, &anchor); err != nil {
			return err
		}
		if data.Gateways == nil {
			data.Gateways = make(map[world.PreferenceKey]world.AnchorID)
		}
		data.Gateways[world.PreferenceKey(pref)] = anchor
		return nil
	})
	if err != nil {
		return world.Data{}, false, fmt.Errorf("ошибка загрузки шлюзов: %w", err)
	}

	return data, true, nil
}

func (r *SQLWorldRepo) query(ctx context.Context, q string, scan func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close закрывает соединение с базой данных.
func (r *SQLWorldRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
