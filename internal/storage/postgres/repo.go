package postgres

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"rahhal_engine/internal/domain"
)

// Repo implements domain.CatalogRepository over the connection pool. All
// queries run inside Pool.WithConn so acquisition retries and validation are
// uniform across components.
type Repo struct{ pool *Pool }

func NewRepo(p *Pool) *Repo { return &Repo{pool: p} }

// maxHotelCandidates bounds how many hotels a single request scores.
const maxHotelCandidates = 20

// likePattern builds the case-insensitive substring filter for region names.
func likePattern(region string) string {
	return "%" + strings.ToLower(strings.TrimSpace(region)) + "%"
}

// displayScore converts cosine similarity ([-1,1]) to a percentage rounded to
// two decimals and clamped to [0,100]; negative similarity never leaks into
// display scores.
func displayScore(sim float64) float64 {
	s := math.Round(sim*100*100) / 100
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func (r *Repo) SearchRegions(ctx context.Context, vec []float32, limit int) ([]domain.Region, error) {
	var out []domain.Region
	err := r.pool.WithConn(ctx, func(ctx context.Context, c Conn) error {
		rows, err := c.Query(ctx, searchRegionsSQL, pgvector.NewVector(vec), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var reg domain.Region
			var sim float64
			if err := rows.Scan(&reg.ID, &reg.Name, &reg.Description, &sim, &reg.Lon, &reg.Lat); err != nil {
				return err
			}
			reg.Score = displayScore(sim)
			out = append(out, reg)
		}
		return rows.Err()
	})
	return out, err
}

func (r *Repo) SearchActivities(ctx context.Context, region string, vec []float32, limit int) ([]domain.Candidate, error) {
	return r.searchCandidates(ctx, searchActivitiesSQL, region, vec, limit)
}

func (r *Repo) SearchLandmarks(ctx context.Context, region string, vec []float32, limit int) ([]domain.Candidate, error) {
	return r.searchCandidates(ctx, searchLandmarksSQL, region, vec, limit)
}

func (r *Repo) searchCandidates(ctx context.Context, query, region string, vec []float32, limit int) ([]domain.Candidate, error) {
	var out []domain.Candidate
	err := r.pool.WithConn(ctx, func(ctx context.Context, c Conn) error {
		rows, err := c.Query(ctx, query, pgvector.NewVector(vec), likePattern(region), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var cd domain.Candidate
			var desc, category *string
			var sim float64
			if err := rows.Scan(&cd.ID, &cd.Name, &desc, &sim, &cd.Price, &category); err != nil {
				return err
			}
			if desc != nil {
				cd.Description = *desc
			}
			if category != nil {
				cd.Category = *category
			}
			cd.Score = displayScore(sim)
			out = append(out, cd)
		}
		return rows.Err()
	})
	return out, err
}

func (r *Repo) ListFacilities(ctx context.Context) ([]domain.Facility, error) {
	var out []domain.Facility
	err := r.pool.WithConn(ctx, func(ctx context.Context, c Conn) error {
		rows, err := c.Query(ctx, listFacilitiesSQL)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var f domain.Facility
			if err := rows.Scan(&f.ID, &f.Name); err != nil {
				return err
			}
			out = append(out, f)
		}
		return rows.Err()
	})
	return out, err
}

func (r *Repo) SearchHotels(ctx context.Context, region string, facilityIDs []int64, nightlyLimit float64) ([]domain.Hotel, error) {
	if facilityIDs == nil {
		facilityIDs = []int64{}
	}
	var out []domain.Hotel
	err := r.pool.WithConn(ctx, func(ctx context.Context, c Conn) error {
		rows, err := c.Query(ctx, searchHotelsSQL, likePattern(region), nightlyLimit, facilityIDs)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = foldHotelRows(rows)
		return err
	})
	return out, err
}

// tripRegionPatterns builds the ILIKE patterns that match region as an
// element of a comma-separated region list: sole, leading, inner, trailing.
func tripRegionPatterns(region string) [4]string {
	r := strings.TrimSpace(region)
	if r == "" {
		return [4]string{}
	}
	return [4]string{r, r + ",%", "%, " + r + ",%", "%, " + r}
}

func (r *Repo) SearchTrips(ctx context.Context, region string, vec []float32, from, to time.Time, limit int) ([]domain.Trip, error) {
	pat := tripRegionPatterns(region)
	var out []domain.Trip
	err := r.pool.WithConn(ctx, func(ctx context.Context, c Conn) error {
		rows, err := c.Query(ctx, searchTripsSQL,
			pgvector.NewVector(vec), pat[0], pat[1], pat[2], pat[3], from, to, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var t domain.Trip
			var desc *string
			var departs time.Time
			if err := rows.Scan(&t.ID, &t.Title, &desc, &t.Region, &t.Price, &departs,
				&t.AvailableSeats, &t.Duration, &t.Similarity); err != nil {
				return err
			}
			if desc != nil {
				t.Description = *desc
			}
			t.Date = departs.Format("2006-01-02")
			out = append(out, t)
		}
		return rows.Err()
	})
	return out, err
}

// foldHotelRows collapses (hotel, facility) rows into hotels, preserving the
// row order of first appearance and capping the candidate set.
func foldHotelRows(rows pgx.Rows) ([]domain.Hotel, error) {
	var out []domain.Hotel
	index := map[int64]int{}
	for rows.Next() {
		var (
			id           int64
			name         string
			nightly      *float64
			lon, lat     float64
			facilityID   *int64
			facilityName *string
		)
		if err := rows.Scan(&id, &name, &nightly, &lon, &lat, &facilityID, &facilityName); err != nil {
			return nil, err
		}
		i, ok := index[id]
		if !ok {
			if len(out) >= maxHotelCandidates {
				continue
			}
			out = append(out, domain.Hotel{ID: id, Name: name, NightlyPrice: nightly, Lon: lon, Lat: lat})
			i = len(out) - 1
			index[id] = i
		}
		if facilityID != nil {
			out[i].FacilityIDs = append(out[i].FacilityIDs, *facilityID)
			if facilityName != nil {
				out[i].Facilities = append(out[i].Facilities, *facilityName)
			}
		}
	}
	return out, rows.Err()
}
