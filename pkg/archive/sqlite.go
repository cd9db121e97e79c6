package archive

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"fbexport/pkg/logger"
	"fbexport/pkg/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a post id is not archived
var ErrNotFound = errors.New("post not found")

// SQLiteSink stores posts in a SQLite database
type SQLiteSink struct {
	db     *sqlx.DB
	logger logger.Logger
	now    func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and brings
// its schema up to date
func OpenSQLite(path string, log logger.Logger) (*SQLiteSink, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// one writer; sqlite serialises anyway
	dbx.SetMaxOpenConns(1)

	if err := runMigrations(dbx); err != nil {
		dbx.Close()
		return nil, err
	}

	return &SQLiteSink{db: dbx, logger: log, now: time.Now}, nil
}

func runMigrations(dbx *sqlx.DB) error {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("error creating migrations source: %w", err)
	}
	i, err := sqlite.WithInstance(dbx.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("error creating sqlite instance for migration: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", d, "sqlite3", i)
	if err != nil {
		return fmt.Errorf("error creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error migrating: %w", err)
	}
	return nil
}

// Write inserts every post of res in one transaction. Posts whose id is
// already archived are skipped along with their links, photos and people.
func (s *SQLiteSink) Write(ctx context.Context, res *models.Result) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	exportedAt := s.now().Unix()
	inserted := 0
	for _, p := range res.Data {
		ok, err := insertPost(ctx, tx, p, exportedAt)
		if err != nil {
			return err
		}
		if ok {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing posts: %w", err)
	}

	s.logger.InfoWithFields("SQLite archive updated", map[string]interface{}{
		"inserted": inserted,
		"skipped":  len(res.Data) - inserted,
	})
	return nil
}

func insertPost(ctx context.Context, tx *sqlx.Tx, p *models.Post, exportedAt int64) (bool, error) {
	var placeName sql.NullString
	var lat, lng sql.NullFloat64
	if p.Place != nil {
		placeName = sql.NullString{String: p.Place.Name, Valid: true}
		if c := p.Place.Coordinates; c != nil {
			lat = sql.NullFloat64{Float64: c.Latitude, Valid: true}
			lng = sql.NullFloat64{Float64: c.Longitude, Valid: true}
		}
	}

	query, args, err := sq.Insert("posts").Options("OR IGNORE").
		Columns("id", "kind", "message", "caption", "created_time", "updated_time",
			"application", "from_me", "place_name", "latitude", "longitude",
			"link_name", "link_description", "link_picture", "exported_at").
		Values(p.ID, p.Kind.String(), nullString(p.Message), nullString(p.Caption),
			p.CreatedTime.Unix(), p.UpdatedTime.Unix(), p.Application, p.FromMe,
			placeName, lat, lng, nullString(p.LinkName), nullString(p.LinkDescription),
			p.LinkPicture, exportedAt).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error constructing sql: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("error inserting post %s: %w", p.ID, err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return false, nil
	}

	if len(p.Links) > 0 {
		b := sq.Insert("post_links").Columns("post_id", "position", "url")
		for i, link := range p.Links {
			b = b.Values(p.ID, i, link)
		}
		if err := execBuilder(ctx, tx, b); err != nil {
			return false, fmt.Errorf("error inserting links of %s: %w", p.ID, err)
		}
	}

	if len(p.Photos) > 0 {
		b := sq.Insert("post_photos").Columns("post_id", "position", "path")
		for i, path := range p.Photos {
			b = b.Values(p.ID, i, path)
		}
		if err := execBuilder(ctx, tx, b); err != nil {
			return false, fmt.Errorf("error inserting photos of %s: %w", p.ID, err)
		}
	}

	if len(p.People) > 0 {
		b := sq.Insert("post_people").Columns("post_id", "position", "person_id", "name", "avatar")
		for i, person := range p.People {
			b = b.Values(p.ID, i, person.ID, person.Name, person.Avatar)
		}
		if err := execBuilder(ctx, tx, b); err != nil {
			return false, fmt.Errorf("error inserting people of %s: %w", p.ID, err)
		}
	}

	return true, nil
}

func execBuilder(ctx context.Context, tx *sqlx.Tx, b sq.InsertBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

type postRow struct {
	ID              string          `db:"id"`
	Kind            string          `db:"kind"`
	Message         sql.NullString  `db:"message"`
	Caption         sql.NullString  `db:"caption"`
	CreatedTime     int64           `db:"created_time"`
	UpdatedTime     int64           `db:"updated_time"`
	Application     string          `db:"application"`
	FromMe          bool            `db:"from_me"`
	PlaceName       sql.NullString  `db:"place_name"`
	Latitude        sql.NullFloat64 `db:"latitude"`
	Longitude       sql.NullFloat64 `db:"longitude"`
	LinkName        sql.NullString  `db:"link_name"`
	LinkDescription sql.NullString  `db:"link_description"`
	LinkPicture     string          `db:"link_picture"`
	ExportedAt      int64           `db:"exported_at"`
}

// Post loads one archived post
func (s *SQLiteSink) Post(ctx context.Context, id string) (*models.Post, error) {
	query, args, err := sq.Select("*").From("posts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %w", err)
	}

	var row postRow
	err = s.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching post: %w", err)
	}

	kind, err := models.ParseKind(row.Kind)
	if err != nil {
		return nil, err
	}
	p := &models.Post{
		ID:          row.ID,
		Kind:        kind,
		CreatedTime: time.Unix(row.CreatedTime, 0),
		UpdatedTime: time.Unix(row.UpdatedTime, 0),
		Application: row.Application,
		FromMe:      row.FromMe,
		LinkPicture: row.LinkPicture,
		Links:       []string{},
		Photos:      []string{},
	}
	p.Message = fromNull(row.Message)
	p.Caption = fromNull(row.Caption)
	p.LinkName = fromNull(row.LinkName)
	p.LinkDescription = fromNull(row.LinkDescription)
	if row.PlaceName.Valid {
		p.Place = &models.Place{Name: row.PlaceName.String}
		if row.Latitude.Valid && row.Longitude.Valid {
			p.Place.Coordinates = &models.Coordinates{Latitude: row.Latitude.Float64, Longitude: row.Longitude.Float64}
		}
	}

	if err := s.db.SelectContext(ctx, &p.Links,
		`SELECT url FROM post_links WHERE post_id = ? ORDER BY position;`, id); err != nil {
		return nil, fmt.Errorf("error fetching links: %w", err)
	}
	if err := s.db.SelectContext(ctx, &p.Photos,
		`SELECT path FROM post_photos WHERE post_id = ? ORDER BY position;`, id); err != nil {
		return nil, fmt.Errorf("error fetching photos: %w", err)
	}
	if err := s.db.SelectContext(ctx, &p.People,
		`SELECT person_id AS id, name, avatar FROM post_people WHERE post_id = ? ORDER BY position;`, id); err != nil {
		return nil, fmt.Errorf("error fetching people: %w", err)
	}
	if len(p.People) == 0 {
		p.People = nil
	}

	return p, nil
}

// Count returns the number of archived posts, optionally limited to one kind
func (s *SQLiteSink) Count(ctx context.Context, kind models.Kind) (int, error) {
	b := sq.Select("COUNT(*)").From("posts")
	if kind != models.KindNone {
		b = b.Where(sq.Eq{"kind": kind.String()})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error constructing sql: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("error counting posts: %w", err)
	}
	return count, nil
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return models.StrPtr(ns.String)
}

// Close closes the database
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
