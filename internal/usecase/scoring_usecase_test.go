package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/saferoute-microservice/internal/domain"
	apperrors "github.com/saferoute-microservice/internal/pkg/errors"
	"github.com/saferoute-microservice/internal/usecase"
	"github.com/saferoute-microservice/internal/usecase/dto"
)

// MockCrimeRepository is a mock of CrimeRepository
type MockCrimeRepository struct {
	mock.Mock
}

func (m *MockCrimeRepository) CountWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) (int64, error) {
	args := m.Called(ctx, lat, lng, radiusMeters)
	return args.Get(0).(int64), args.Error(1)
}

// MockLightingRepository is a mock of LightingRepository
type MockLightingRepository struct {
	mock.Mock
}

func (m *MockLightingRepository) GetLightsWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) ([]domain.StreetLight, error) {
	args := m.Called(ctx, lat, lng, radiusMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreetLight), args.Error(1)
}

// MockInstitutionRepository is a mock of InstitutionRepository
type MockInstitutionRepository struct {
	mock.Mock
}

func (m *MockInstitutionRepository) ExistsWithinRadius(ctx context.Context, lat, lng, radiusMeters float64, types []string) (bool, error) {
	args := m.Called(ctx, lat, lng, radiusMeters, types)
	return args.Bool(0), args.Error(1)
}

// MockFootTrafficRepository is a mock of FootTrafficRepository
type MockFootTrafficRepository struct {
	mock.Mock
}

func (m *MockFootTrafficRepository) SumCountsWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) (float64, int64, error) {
	args := m.Called(ctx, lat, lng, radiusMeters)
	return args.Get(0).(float64), args.Get(1).(int64), args.Error(2)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type mockRepos struct {
	crime       *MockCrimeRepository
	lighting    *MockLightingRepository
	institution *MockInstitutionRepository
	footTraffic *MockFootTrafficRepository
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		crime:       &MockCrimeRepository{},
		lighting:    &MockLightingRepository{},
		institution: &MockInstitutionRepository{},
		footTraffic: &MockFootTrafficRepository{},
	}
}

func newScoringUseCase(repos *mockRepos) *usecase.ScoringUseCase {
	logger := zap.NewNop()
	scorer := usecase.NewSegmentScorer(
		repos.crime,
		repos.lighting,
		repos.institution,
		repos.footTraffic,
		nil, // no cache
		0,
		[]string{"police", "hospital", "school"},
		logger,
	)
	return usecase.NewScoringUseCase(scorer, logger)
}

// expectQuietArea sets up factor responses at a step's midpoint for a point
// with nothing around it: no crime, no lights, no institutions, no
// foot-traffic samples.
func (r *mockRepos) expectQuietArea(step domain.Step) {
	mid := step.Midpoint()
	r.crime.On("CountWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything).Return(int64(0), nil)
	r.lighting.On("GetLightsWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything).Return([]domain.StreetLight{}, nil)
	r.institution.On("ExistsWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything, mock.Anything).Return(false, nil)
	r.footTraffic.On("SumCountsWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything).Return(0.0, int64(0), nil)
}

func makeStep(startLat, startLng, endLat, endLng float64) domain.Step {
	return domain.Step{
		StartLocation: &domain.Location{Lat: startLat, Lng: startLng},
		EndLocation:   &domain.Location{Lat: endLat, Lng: endLng},
	}
}

func singleStepRoute(step domain.Step) domain.Route {
	return domain.Route{
		Legs: []domain.Leg{{Steps: []domain.Step{step}}},
	}
}

func TestScoringUseCase_ScoreRoutes(t *testing.T) {
	ctx := context.Background()

	t.Run("combines factors with fixed weights", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		step := makeStep(40.0, -74.0, 40.001, -74.001)
		mid := step.Midpoint()

		// crime 0, lighting avg 80, institution present, foot traffic no data
		repos.crime.On("CountWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything).
			Return(int64(0), nil)
		repos.lighting.On("GetLightsWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything).
			Return([]domain.StreetLight{
				{ID: 1, Status: domain.LightStatusWorking, Brightness: 70},
				{ID: 2, Status: domain.LightStatusWorking, Brightness: 90},
				{ID: 3, Status: "broken", Brightness: 100},
			}, nil)
		repos.institution.On("ExistsWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything, mock.Anything).
			Return(true, nil)
		repos.footTraffic.On("SumCountsWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything).
			Return(0.0, int64(0), nil)

		req := dto.ScoreRoutesRequest{Routes: []domain.Route{singleStepRoute(step)}}

		resp, err := uc.ScoreRoutes(ctx, req)

		assert.NoError(t, err)
		assert.Len(t, resp.Routes, 1)
		assert.NotNil(t, resp.Routes[0].SafetyScore)
		// 0.45*0 + 0.30*50 + 0.15*80 + 0.10*100 = 37.00
		assert.Equal(t, 37.0, *resp.Routes[0].SafetyScore)
	})

	t.Run("crime and foot traffic scores are capped at 100", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		step := makeStep(40.0, -74.0, 40.001, -74.001)
		mid := step.Midpoint()

		repos.crime.On("CountWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything).
			Return(int64(5000), nil) // 5000 * 0.1 = 500, capped to 100
		repos.lighting.On("GetLightsWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything).
			Return([]domain.StreetLight{}, nil)
		repos.institution.On("ExistsWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything, mock.Anything).
			Return(false, nil)
		repos.footTraffic.On("SumCountsWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything).
			Return(120.0, int64(4), nil) // sum capped to 100

		req := dto.ScoreRoutesRequest{Routes: []domain.Route{singleStepRoute(step)}}

		resp, err := uc.ScoreRoutes(ctx, req)

		assert.NoError(t, err)
		// 0.45*100 + 0.30*100 + 0.15*0 + 0.10*0 = 75.00
		assert.Equal(t, 75.0, *resp.Routes[0].SafetyScore)
	})

	t.Run("quiet area still gets neutral foot traffic", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		step := makeStep(10.0, 20.0, 10.001, 20.001)
		repos.expectQuietArea(step)

		req := dto.ScoreRoutesRequest{Routes: []domain.Route{singleStepRoute(step)}}

		resp, err := uc.ScoreRoutes(ctx, req)

		assert.NoError(t, err)
		// only the neutral foot-traffic contribution: 0.30*50 = 15.00
		assert.Equal(t, 15.0, *resp.Routes[0].SafetyScore)
	})

	t.Run("route score is the mean of segment scores", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		quietStep := makeStep(10.0, 20.0, 10.001, 20.001)  // scores 15
		guardedStep := makeStep(11.0, 21.0, 11.001, 21.001) // institution nearby: 25
		repos.expectQuietArea(quietStep)

		gmid := guardedStep.Midpoint()
		repos.crime.On("CountWithinRadius", mock.Anything, gmid.Lat, gmid.Lng, mock.Anything).Return(int64(0), nil)
		repos.lighting.On("GetLightsWithinRadius", mock.Anything, gmid.Lat, gmid.Lng, mock.Anything).Return([]domain.StreetLight{}, nil)
		repos.institution.On("ExistsWithinRadius", mock.Anything, gmid.Lat, gmid.Lng, mock.Anything, mock.Anything).Return(true, nil)
		repos.footTraffic.On("SumCountsWithinRadius", mock.Anything, gmid.Lat, gmid.Lng, mock.Anything).Return(0.0, int64(0), nil)

		route := domain.Route{
			Legs: []domain.Leg{{Steps: []domain.Step{quietStep, guardedStep}}},
		}

		resp, err := uc.ScoreRoutes(ctx, dto.ScoreRoutesRequest{Routes: []domain.Route{route}})

		assert.NoError(t, err)
		// (15 + 25) / 2 = 20.00
		assert.Equal(t, 20.0, *resp.Routes[0].SafetyScore)
	})

	t.Run("route with zero segments scores zero", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		route := domain.Route{Legs: []domain.Leg{{Steps: nil}}}

		resp, err := uc.ScoreRoutes(ctx, dto.ScoreRoutesRequest{Routes: []domain.Route{route}})

		assert.NoError(t, err)
		assert.NotNil(t, resp.Routes[0].SafetyScore)
		assert.Equal(t, 0.0, *resp.Routes[0].SafetyScore)
		repos.crime.AssertNotCalled(t, "CountWithinRadius")
	})

	t.Run("response preserves request order", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		quietStep := makeStep(10.0, 20.0, 10.001, 20.001)
		guardedStep := makeStep(30.0, 40.0, 30.001, 40.001)
		repos.expectQuietArea(quietStep)

		gmid := guardedStep.Midpoint()
		repos.crime.On("CountWithinRadius", mock.Anything, gmid.Lat, gmid.Lng, mock.Anything).Return(int64(0), nil)
		repos.lighting.On("GetLightsWithinRadius", mock.Anything, gmid.Lat, gmid.Lng, mock.Anything).Return([]domain.StreetLight{}, nil)
		repos.institution.On("ExistsWithinRadius", mock.Anything, gmid.Lat, gmid.Lng, mock.Anything, mock.Anything).Return(true, nil)
		repos.footTraffic.On("SumCountsWithinRadius", mock.Anything, gmid.Lat, gmid.Lng, mock.Anything).Return(0.0, int64(0), nil)

		req := dto.ScoreRoutesRequest{
			Routes: []domain.Route{
				singleStepRoute(quietStep),
				singleStepRoute(guardedStep),
			},
		}

		resp, err := uc.ScoreRoutes(ctx, req)

		assert.NoError(t, err)
		assert.Len(t, resp.Routes, 2)
		assert.Equal(t, 15.0, *resp.Routes[0].SafetyScore)
		assert.Equal(t, 25.0, *resp.Routes[1].SafetyScore)
	})

	t.Run("scoring is idempotent", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		step := makeStep(10.0, 20.0, 10.001, 20.001)
		repos.expectQuietArea(step)

		req := dto.ScoreRoutesRequest{Routes: []domain.Route{singleStepRoute(step)}}

		first, err := uc.ScoreRoutes(ctx, req)
		assert.NoError(t, err)

		second, err := uc.ScoreRoutes(ctx, req)
		assert.NoError(t, err)

		assert.Equal(t, *first.Routes[0].SafetyScore, *second.Routes[0].SafetyScore)
	})

	t.Run("pass-through fields survive scoring", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		step := makeStep(10.0, 20.0, 10.001, 20.001)
		repos.expectQuietArea(step)

		route := singleStepRoute(step)
		route.Extra = map[string]json.RawMessage{
			"summary": json.RawMessage(`"Main St"`),
		}

		resp, err := uc.ScoreRoutes(ctx, dto.ScoreRoutesRequest{Routes: []domain.Route{route}})

		assert.NoError(t, err)
		assert.Equal(t, json.RawMessage(`"Main St"`), resp.Routes[0].Extra["summary"])
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		resp, err := uc.ScoreRoutes(ctx, dto.ScoreRoutesRequest{Routes: []domain.Route{}})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, apperrors.ErrNoRoutes)
	})

	t.Run("missing coordinates are rejected before querying", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		route := singleStepRoute(domain.Step{
			StartLocation: &domain.Location{Lat: 10.0, Lng: 20.0},
			EndLocation:   nil,
		})

		resp, err := uc.ScoreRoutes(ctx, dto.ScoreRoutesRequest{Routes: []domain.Route{route}})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, apperrors.ErrMissingCoordinates)
		repos.crime.AssertNotCalled(t, "CountWithinRadius")
	})

	t.Run("out of range coordinates are rejected", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		route := singleStepRoute(makeStep(95.0, 20.0, 10.001, 20.001))

		resp, err := uc.ScoreRoutes(ctx, dto.ScoreRoutesRequest{Routes: []domain.Route{route}})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCoordinates)
	})

	t.Run("store error fails the whole batch", func(t *testing.T) {
		repos := newMockRepos()
		uc := newScoringUseCase(repos)

		storeErr := errors.New("connection refused")

		repos.crime.On("CountWithinRadius", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(int64(0), storeErr)
		repos.lighting.On("GetLightsWithinRadius", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]domain.StreetLight{}, nil).Maybe()
		repos.institution.On("ExistsWithinRadius", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(false, nil).Maybe()
		repos.footTraffic.On("SumCountsWithinRadius", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(0.0, int64(0), nil).Maybe()

		req := dto.ScoreRoutesRequest{
			Routes: []domain.Route{
				singleStepRoute(makeStep(10.0, 20.0, 10.001, 20.001)),
				singleStepRoute(makeStep(30.0, 40.0, 30.001, 40.001)),
			},
		}

		resp, err := uc.ScoreRoutes(ctx, req)

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestSegmentScorer_Cache(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	cacheKey := func(dataset string, mid domain.Location) string {
		return fmt.Sprintf("signal:%s:%.5f:%.5f", dataset, mid.Lat, mid.Lng)
	}

	t.Run("cached factor values skip the store", func(t *testing.T) {
		repos := newMockRepos()
		mockCache := &MockCacheRepository{}

		step := makeStep(40.0, -74.0, 40.001, -74.001)
		mid := step.Midpoint()

		// All four factor lookups hit the cache.
		mockCache.On("Get", mock.Anything, cacheKey("crime", mid)).Return([]byte("20"), nil)
		mockCache.On("Get", mock.Anything, cacheKey("lighting", mid)).Return([]byte("80"), nil)
		mockCache.On("Get", mock.Anything, cacheKey("institution", mid)).Return([]byte("100"), nil)
		mockCache.On("Get", mock.Anything, cacheKey("foot_traffic", mid)).Return([]byte("50"), nil)

		scorer := usecase.NewSegmentScorer(
			repos.crime, repos.lighting, repos.institution, repos.footTraffic,
			mockCache, 5*time.Minute, []string{"police"}, logger,
		)

		scores, err := scorer.Score(ctx, &step)

		assert.NoError(t, err)
		assert.Equal(t, 20.0, scores.Crime)
		assert.Equal(t, 80.0, scores.Lighting)
		assert.Equal(t, 100.0, scores.Institution)
		assert.Equal(t, 50.0, scores.FootTraffic)
		repos.crime.AssertNotCalled(t, "CountWithinRadius")
		repos.lighting.AssertNotCalled(t, "GetLightsWithinRadius")
	})

	t.Run("cache miss queries the store and caches the result", func(t *testing.T) {
		repos := newMockRepos()
		mockCache := &MockCacheRepository{}

		mockCache.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
		mockCache.On("Set", mock.Anything, mock.Anything, mock.Anything, 5*time.Minute).Return(nil)

		step := makeStep(40.0, -74.0, 40.001, -74.001)
		mid := step.Midpoint()
		repos.expectQuietArea(step)

		scorer := usecase.NewSegmentScorer(
			repos.crime, repos.lighting, repos.institution, repos.footTraffic,
			mockCache, 5*time.Minute, []string{"police"}, logger,
		)

		scores, err := scorer.Score(ctx, &step)

		assert.NoError(t, err)
		assert.Equal(t, 50.0, scores.FootTraffic)
		repos.crime.AssertCalled(t, "CountWithinRadius", mock.Anything, mid.Lat, mid.Lng, mock.Anything)
		mockCache.AssertCalled(t, "Set", mock.Anything, cacheKey("crime", mid), []byte("0"), 5*time.Minute)
	})

	t.Run("cache failure degrades to the store", func(t *testing.T) {
		repos := newMockRepos()
		mockCache := &MockCacheRepository{}

		cacheErr := errors.New("redis down")
		mockCache.On("Get", mock.Anything, mock.Anything).Return(nil, cacheErr)
		mockCache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(cacheErr)

		step := makeStep(40.0, -74.0, 40.001, -74.001)
		repos.expectQuietArea(step)

		scorer := usecase.NewSegmentScorer(
			repos.crime, repos.lighting, repos.institution, repos.footTraffic,
			mockCache, 5*time.Minute, []string{"police"}, logger,
		)

		scores, err := scorer.Score(ctx, &step)

		assert.NoError(t, err)
		assert.Equal(t, 50.0, scores.FootTraffic)
	})
}
