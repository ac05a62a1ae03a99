package services

import (
	"context"
	"time"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultIndexSecID is the government bond index shown on the dashboard.
const DefaultIndexSecID = "RGBI"

type indexService struct {
	api   MoexAPI
	secid string
}

// NewIndexService creates a new index history service
func NewIndexService(api MoexAPI) IndexService {
	return &indexService{api: api, secid: DefaultIndexSecID}
}

func (s *indexService) History(ctx context.Context, from, till time.Time) ([]models.IndexPoint, error) {
	points, err := s.api.IndexHistory(ctx, s.secid, from, till)
	if err != nil {
		return nil, err
	}
	out := make([]models.IndexPoint, 0, len(points))
	for _, p := range points {
		out = append(out, models.IndexPoint{
			Date:  p.Date.Format("2006-01-02"),
			Close: decimal.NewFromFloat(p.Close),
		})
	}
	return out, nil
}
