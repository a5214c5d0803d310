package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"novalabs/internal/model"
)

// setupTestDB boots a throwaway MySQL container and migrates the schema.
// The returned cleanup terminates the container.
func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	if testing.Short() {
		t.Skip("skipping container-backed tests in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8.0",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "testpass",
			"MYSQL_DATABASE":      "novalabs_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("3306/tcp"),
			// MySQL logs this once for the init server and once for real.
			wait.ForLog("ready for connections").WithOccurrence(2),
		).WithDeadline(3 * time.Minute),
	}

	mysqlContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")

	port, err := mysqlContainer.MappedPort(ctx, "3306")
	require.NoError(t, err, "failed to get mapped port")

	dsn := fmt.Sprintf("root:testpass@tcp(127.0.0.1:%s)/novalabs_test?charset=utf8mb4&parseTime=True&loc=Local", port.Port())

	var db *gorm.DB
	for range 10 {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				if err = sqlDB.Ping(); err == nil {
					break
				}
			}
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to connect after retries")

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Project{}), "failed to migrate schema")

	cleanup := func() {
		if db != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
		}
		_ = mysqlContainer.Terminate(ctx)
	}
	return db, cleanup
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) *model.User {
	user := &model.User{Name: name, Email: email, Role: model.RoleUser}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProject(t *testing.T, db *gorm.DB, userID uint, name string, plan model.PlanType) *model.Project {
	project := &model.Project{
		Name:         name,
		UserID:       userID,
		Status:       model.StatusEnDesarrollo,
		Progress:     10,
		CurrentPhase: "Diseño inicial",
		Plan:         plan,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func TestProjectRepository_ListSearch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProjectRepository(db)
	ctx := context.Background()

	ana := seedUser(t, db, "Ana Garcia", "ana@acme.mx")
	bruno := seedUser(t, db, "Bruno Diaz", "bruno@luna.io")

	corporate := seedProject(t, db, ana.ID, "Sitio Corporativo", model.PlanRocket)
	discount := seedProject(t, db, bruno.ID, "Tienda 100% Natural", model.PlanGalaxy)
	lookalike := seedProject(t, db, bruno.ID, "Tienda 1009 Natural", model.PlanRocket)

	tests := []struct {
		name    string
		search  string
		wantIDs []uint
	}{
		{
			name:    "matches project name case-insensitively",
			search:  "SITIO",
			wantIDs: []uint{corporate.ID},
		},
		{
			name:    "matches owner name",
			search:  "garcia",
			wantIDs: []uint{corporate.ID},
		},
		{
			name:    "matches owner email",
			search:  "Acme",
			wantIDs: []uint{corporate.ID},
		},
		{
			name:    "owner match returns all of the owner's projects",
			search:  "bruno@luna.io",
			wantIDs: []uint{discount.ID, lookalike.ID},
		},
		{
			name:    "percent sign is matched literally",
			search:  "100%",
			wantIDs: []uint{discount.ID},
		},
		{
			name:    "no match returns empty page",
			search:  "zzz-nothing",
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects, total, err := repo.List(ctx, ProjectFilter{Search: tt.search, Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.wantIDs)), total)

			gotIDs := make([]uint, 0, len(projects))
			for _, p := range projects {
				gotIDs = append(gotIDs, p.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, gotIDs)
		})
	}
}

func TestProjectRepository_CreateForPlanIfAbsent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProjectRepository(db)
	ctx := context.Background()

	t.Run("redelivery converges on the first project", func(t *testing.T) {
		owner := seedUser(t, db, "Carla Reyes", "carla@estudio.mx")

		first, created, err := repo.CreateForPlanIfAbsent(ctx, &model.Project{
			Name:   "Proyecto Rocket - Carla Reyes",
			UserID: owner.ID,
			Status: model.StatusEnDesarrollo,
			Plan:   model.PlanRocket,
		})
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := repo.CreateForPlanIfAbsent(ctx, &model.Project{
			Name:   "Proyecto Rocket - Carla Reyes",
			UserID: owner.ID,
			Status: model.StatusEnDesarrollo,
			Plan:   model.PlanRocket,
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)

		var count int64
		require.NoError(t, db.Model(&model.Project{}).Where("user_id = ?", owner.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("a different plan provisions a second project", func(t *testing.T) {
		owner := seedUser(t, db, "Diego Luna", "diego@orbita.mx")

		_, created, err := repo.CreateForPlanIfAbsent(ctx, &model.Project{
			Name:   "Proyecto Rocket - Diego Luna",
			UserID: owner.ID,
			Status: model.StatusEnDesarrollo,
			Plan:   model.PlanRocket,
		})
		require.NoError(t, err)
		assert.True(t, created)

		_, created, err = repo.CreateForPlanIfAbsent(ctx, &model.Project{
			Name:   "Proyecto Galaxy - Diego Luna",
			UserID: owner.ID,
			Status: model.StatusEnDesarrollo,
			Plan:   model.PlanGalaxy,
		})
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("concurrent deliveries create exactly one project", func(t *testing.T) {
		owner := seedUser(t, db, "Elena Sol", "elena@nube.mx")

		const workers = 8
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = make(map[uint]struct{})

			createdCount int
		)
		errs := make([]error, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				project, created, err := repo.CreateForPlanIfAbsent(ctx, &model.Project{
					Name:   "Proyecto Galaxy - Elena Sol",
					UserID: owner.ID,
					Status: model.StatusEnDesarrollo,
					Plan:   model.PlanGalaxy,
				})
				if err != nil {
					errs[i] = err
					return
				}
				mu.Lock()
				defer mu.Unlock()
				ids[project.ID] = struct{}{}
				if created {
					createdCount++
				}
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, 1, createdCount)
		assert.Len(t, ids, 1)

		var count int64
		require.NoError(t, db.Model(&model.Project{}).Where("user_id = ?", owner.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeLike(tt.in), "input %q", tt.in)
	}
}
