package lockstore

import (
	"context"

	"github.com/maheshrc27/storepost/internal/composer"
	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
)

// Postgres stores snapshots in the generation_defaults table.
type Postgres struct {
	repo repository.GenerationDefaultRepository
}

func NewPostgres(repo repository.GenerationDefaultRepository) *Postgres {
	return &Postgres{repo: repo}
}

func (p *Postgres) Load(ctx context.Context, userID int64) (map[string]composer.StoredParameter, error) {
	defaults, err := p.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]composer.StoredParameter, len(defaults))
	for _, d := range defaults {
		out[d.Name] = composer.StoredParameter{Value: d.Value, Locked: d.Locked}
	}
	return out, nil
}

func (p *Postgres) Save(ctx context.Context, userID int64, name string, sp composer.StoredParameter) error {
	return p.repo.Upsert(ctx, &models.GenerationDefault{
		UserID: userID,
		Name:   name,
		Value:  sp.Value,
		Locked: sp.Locked,
	})
}
