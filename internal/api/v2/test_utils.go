// test_utils.go: Package api provides shared test utilities for API v2 tests.

package api

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/MC-Knight/django-bims/internal/conf"
	"github.com/MC-Knight/django-bims/internal/datastore"
)

// MockDataStore implements the datastore.Interface for testing.
// This is a shared implementation that can be used across all test files.
type MockDataStore struct {
	mock.Mock
}

func (m *MockDataStore) Open() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDataStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDataStore) GetTaxonGroup(id uint) (datastore.TaxonGroup, error) {
	args := m.Called(id)
	return args.Get(0).(datastore.TaxonGroup), args.Error(1)
}

func (m *MockDataStore) GetSpeciesModuleGroups() ([]datastore.TaxonGroup, error) {
	args := m.Called()
	return args.Get(0).([]datastore.TaxonGroup), args.Error(1)
}

func (m *MockDataStore) CountRecords(groupID uint) (int64, error) {
	args := m.Called(groupID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataStore) CountDistinctTaxa(groupID uint) (int64, error) {
	args := m.Called(groupID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataStore) CountDistinctSites(groupID uint) (int64, error) {
	args := m.Called(groupID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataStore) CountDistinctSurveys(groupID uint) (int64, error) {
	args := m.Called(groupID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataStore) GetGroupTaxa(groupID uint) ([]datastore.Taxonomy, error) {
	args := m.Called(groupID)
	return args.Get(0).([]datastore.Taxonomy), args.Error(1)
}

func (m *MockDataStore) GetSpeciesPage(groupID uint, search string, limit, offset int) ([]datastore.Taxonomy, int64, error) {
	args := m.Called(groupID, search, limit, offset)
	return args.Get(0).([]datastore.Taxonomy), args.Get(1).(int64), args.Error(2)
}

func (m *MockDataStore) FindAncestorByRank(taxonomyID uint, rank string) (*datastore.Taxonomy, error) {
	args := m.Called(taxonomyID, rank)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.Taxonomy), args.Error(1)
}

func (m *MockDataStore) DivisionCounts(groupID uint) ([]datastore.NamedCount, error) {
	args := m.Called(groupID)
	return args.Get(0).([]datastore.NamedCount), args.Error(1)
}

func (m *MockDataStore) OriginCounts(groupID uint) (map[string]int64, error) {
	args := m.Called(groupID)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockDataStore) EndemismCounts(groupID uint) (map[string]int64, error) {
	args := m.Called(groupID)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockDataStore) ConservationStatusCounts(groupID uint) (map[string]int64, error) {
	args := m.Called(groupID)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockDataStore) EcologicalConditionCounts() ([]datastore.EcologicalConditionCount, error) {
	args := m.Called()
	return args.Get(0).([]datastore.EcologicalConditionCount), args.Error(1)
}

func (m *MockDataStore) CountSiteVisits() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataStore) CountActiveUsers() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataStore) CountSurveysExcludingOwners(patterns []string) (int64, error) {
	args := m.Called(patterns)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataStore) CountDownloadRequests() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// Compile-time check that the mock satisfies the interface
var _ datastore.Interface = (*MockDataStore)(nil)

// setupTestEnvironment creates a test environment with Echo, MockDataStore and Controller
func setupTestEnvironment(t *testing.T) (*echo.Echo, *MockDataStore, *Controller) {
	t.Helper()

	e := echo.New()
	mockDS := new(MockDataStore)

	settings := &conf.Settings{}
	settings.WebServer.Debug = true
	settings.WebServer.Log.Path = filepath.Join(t.TempDir(), "web.log")

	logger := log.New(os.Stdout, "API TEST: ", log.LstdFlags)

	controller, err := New(e, mockDS, settings, logger, nil)
	if err != nil {
		t.Fatalf("Failed to create test API controller: %v", err)
	}
	t.Cleanup(controller.Shutdown)

	return e, mockDS, controller
}
