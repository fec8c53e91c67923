package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mdb-curator/internal/data/dbctx"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

type EventFilter struct {
	Operation string
	// Key matches either the subject or the object.
	Key      string
	Operator string
	Since    time.Time
	Limit    int
}

type CurationEventRepo interface {
	Create(dbc dbctx.Context, events []*vocab.CurationEvent) ([]*vocab.CurationEvent, error)
	List(dbc dbctx.Context, f EventFilter) ([]*vocab.CurationEvent, error)
}

type curationEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCurationEventRepo(db *gorm.DB, baseLog *logger.Logger) CurationEventRepo {
	return &curationEventRepo{
		db:  db,
		log: baseLog.With("repo", "CurationEventRepo"),
	}
}

func (r *curationEventRepo) Create(dbc dbctx.Context, events []*vocab.CurationEvent) ([]*vocab.CurationEvent, error) {
	if len(events) == 0 {
		return []*vocab.CurationEvent{}, nil
	}
	now := time.Now().UTC()
	for _, e := range events {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
	}
	if err := dbc.DB(r.db).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// List returns matching events, newest first.
func (r *curationEventRepo) List(dbc dbctx.Context, f EventFilter) ([]*vocab.CurationEvent, error) {
	q := dbc.DB(r.db).Model(&vocab.CurationEvent{})
	if f.Operation != "" {
		q = q.Where("operation = ?", f.Operation)
	}
	if f.Key != "" {
		q = q.Where("subject = ? OR object = ?", f.Key, f.Key)
	}
	if f.Operator != "" {
		q = q.Where("operator = ?", f.Operator)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var out []*vocab.CurationEvent
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
