package service

import (
	"os"
	"testing"
	"time"

	"starquest/internal/database"
	"starquest/internal/models"
	"starquest/internal/repository"
	"starquest/internal/security"
)

type testEnv struct {
	db              *database.DB
	auth            *AuthService
	users           *UserService
	catalog         *CatalogService
	quiz            *QuizService
	progress        *ProgressService
	recommendations *RecommendationService
	seasonRepo      *repository.SeasonRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := t.TempDir() + "/test_services.db"
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	seasonRepo := repository.NewSeasonRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	email, err := NewEmailService("us-east-1", "", "", "http://localhost:8080")
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}

	tokens := security.NewTokenManager("test-secret", "starquest", time.Hour)
	catalog := NewCatalogService(moduleRepo, seasonRepo)
	progress := NewProgressService(progressRepo, catalog)

	return &testEnv{
		db:              db,
		auth:            NewAuthService(userRepo, tokens, email, 10*time.Minute),
		users:           NewUserService(userRepo, email),
		catalog:         catalog,
		quiz:            NewQuizService(catalog),
		progress:        progress,
		recommendations: NewRecommendationService(moduleRepo, progressRepo, userRepo, 5),
		seasonRepo:      seasonRepo,
	}
}

func (e *testEnv) seedCatalog(t *testing.T) {
	t.Helper()

	season := &models.Season{
		ID:        "season-1",
		Title:     "Space Explorers",
		Phase:     1,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := e.seasonRepo.Upsert(season); err != nil {
		t.Fatalf("Failed to seed season: %v", err)
	}

	modules := []models.Module{
		{
			ID:         "mod-planets",
			Title:      "Meet the Planets",
			AgeGroup:   models.AgeGroup5to7,
			Difficulty: models.DifficultyEasy,
			Phase:      1,
			SeasonID:   "season-1",
			Quiz: []models.QuizQuestion{
				mcQuestion("Mars", "Venus"),
				mcQuestion("Jupiter", "Saturn"),
			},
		},
		{
			ID:         "mod-rockets",
			Title:      "How Rockets Fly",
			AgeGroup:   models.AgeGroup5to7,
			Difficulty: models.DifficultyMedium,
			Phase:      1,
			SeasonID:   "season-1",
		},
		{
			ID:         "mod-blackholes",
			Title:      "Black Holes",
			AgeGroup:   models.AgeGroup5to7,
			Difficulty: models.DifficultyHard,
			Phase:      2,
			SeasonID:   "season-1",
		},
	}
	for i := range modules {
		if _, err := e.catalog.Create(&modules[i]); err != nil {
			t.Fatalf("Failed to seed module %s: %v", modules[i].ID, err)
		}
	}
}

func registerStudent(t *testing.T, e *testEnv, email string, age int) *models.User {
	t.Helper()
	user, token, err := e.auth.Register(RegisterInput{
		Username: "tester",
		Email:    email,
		Password: "password123",
		Role:     models.RoleStudent,
		Age:      &age,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if token == "" {
		t.Fatal("Register() returned empty token")
	}
	return user
}

func TestAuthFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	e := newTestEnv(t)

	user := registerStudent(t, e, "kid@example.com", 6)
	if user.Role != models.RoleStudent {
		t.Errorf("Role = %q, want student", user.Role)
	}
	if user.Preferences.ParentalPin != "0000" {
		t.Errorf("new account missing default preferences: %+v", user.Preferences)
	}

	// Duplicate email is rejected
	if _, _, err := e.auth.Register(RegisterInput{
		Username: "other",
		Email:    "kid@example.com",
		Password: "password123",
		Role:     models.RoleStudent,
	}); err != ErrEmailTaken {
		t.Errorf("duplicate Register() error = %v, want %v", err, ErrEmailTaken)
	}

	// Login succeeds with the right password
	logged, token, err := e.auth.Login("kid@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" || logged.ID != user.ID {
		t.Errorf("Login() returned user %q token %q", logged.ID, token)
	}

	// Wrong password and unknown email fail identically
	_, _, errWrong := e.auth.Login("kid@example.com", "wrongpassword")
	_, _, errUnknown := e.auth.Login("nobody@example.com", "password123")
	if errWrong != ErrInvalidCredentials || errUnknown != ErrInvalidCredentials {
		t.Errorf("Login failures = (%v, %v), want both %v", errWrong, errUnknown, ErrInvalidCredentials)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	e := newTestEnv(t)
	registerStudent(t, e, "kid@example.com", 8)

	token, err := e.auth.RequestPasswordReset(t.Context(), "kid@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token for a known email")
	}

	// Unknown emails get the same silence, no error and no token
	ghost, err := e.auth.RequestPasswordReset(t.Context(), "ghost@example.com")
	if err != nil || ghost != "" {
		t.Errorf("unknown email reset = (%q, %v), want empty and nil", ghost, err)
	}

	if err := e.auth.ResetPassword(token, "newpassword1"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	// Token is single use
	if err := e.auth.ResetPassword(token, "anotherpass1"); err != ErrInvalidResetToken {
		t.Errorf("reused token error = %v, want %v", err, ErrInvalidResetToken)
	}

	if _, _, err := e.auth.Login("kid@example.com", "newpassword1"); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
	if _, _, err := e.auth.Login("kid@example.com", "password123"); err != ErrInvalidCredentials {
		t.Errorf("Login() with old password error = %v, want %v", err, ErrInvalidCredentials)
	}
}

func TestParentChildFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	e := newTestEnv(t)

	parent, _, err := e.auth.Register(RegisterInput{
		Username: "parent",
		Email:    "parent@example.com",
		Password: "password123",
		Role:     models.RoleParent,
	})
	if err != nil {
		t.Fatalf("Register(parent) error = %v", err)
	}

	age := 7
	child, err := e.users.CreateChild(t.Context(), parent.ID, ChildInput{Age: &age})
	if err != nil {
		t.Fatalf("CreateChild() error = %v", err)
	}
	if child.User.ParentID != parent.ID {
		t.Errorf("child ParentID = %q, want %q", child.User.ParentID, parent.ID)
	}
	if child.StarterPassword == "" {
		t.Error("generated starter password should be returned once")
	}

	children, err := e.users.ListChildren(parent.ID)
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if len(children) != 1 || children[0].ID != child.User.ID {
		t.Errorf("ListChildren() = %d records", len(children))
	}

	ok, err := e.users.IsParentOf(parent.ID, child.User.ID)
	if err != nil || !ok {
		t.Errorf("IsParentOf() = (%v, %v), want true", ok, err)
	}

	linked, err := e.users.GetParent(child.User.ID)
	if err != nil {
		t.Fatalf("GetParent() error = %v", err)
	}
	if linked.ID != parent.ID {
		t.Errorf("GetParent() = %q, want %q", linked.ID, parent.ID)
	}
}

func TestProgressFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	e := newTestEnv(t)
	e.seedCatalog(t)
	user := registerStudent(t, e, "kid@example.com", 6)

	truth := true
	forty := 40
	ninety := 90

	// First update creates the record
	record, err := e.progress.Upsert(user.ID, "mod-planets", models.ProgressUpdate{Percentage: &ninety, VideoWatched: &truth})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if record.Percentage != 90 || !record.VideoWatched {
		t.Errorf("record = %+v", record)
	}

	// A lower percentage does not regress the stored one
	record, err = e.progress.Upsert(user.ID, "mod-planets", models.ProgressUpdate{Percentage: &forty})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if record.Percentage != 90 {
		t.Errorf("Percentage = %d, want 90 after lower update", record.Percentage)
	}

	// Unknown module is rejected
	if _, err := e.progress.Upsert(user.ID, "mod-missing", models.ProgressUpdate{Percentage: &forty}); err != ErrModuleNotFound {
		t.Errorf("Upsert(unknown module) error = %v, want %v", err, ErrModuleNotFound)
	}

	// Quiz submission grades and forces completion
	result, err := e.quiz.GradeModule("mod-planets", []string{"Mars", "Saturn"})
	if err != nil {
		t.Fatalf("GradeModule() error = %v", err)
	}
	if result.Score != 50 {
		t.Fatalf("Score = %d, want 50", result.Score)
	}

	record, err = e.progress.SubmitQuiz(user.ID, "mod-planets", []string{"Mars", "Saturn"}, result.Score)
	if err != nil {
		t.Fatalf("SubmitQuiz() error = %v", err)
	}
	if !record.Completed || record.Percentage != 100 || !record.VideoWatched {
		t.Errorf("post-quiz record = %+v", record)
	}
	if record.QuizAttempt == nil || record.QuizAttempt.Stars != 1 {
		t.Errorf("QuizAttempt = %+v, want 1 star", record.QuizAttempt)
	}

	stats, err := e.progress.Stats(user.ID)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalModules != 1 || stats.CompletedModules != 1 || stats.TotalStars != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.AvgProgress != 100 || stats.CompletionRate != 100 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRecommendations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	e := newTestEnv(t)
	e.seedCatalog(t)
	user := registerStudent(t, e, "kid@example.com", 6)

	recs, err := e.recommendations.ForUser(user.ID)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}

	// Default preferences cap difficulty at medium, so the hard module is out
	for _, rec := range recs {
		if rec.ModuleID == "mod-blackholes" {
			t.Error("recommendation exceeds the difficulty ceiling")
		}
		if rec.Score < 0 || rec.Score > 1 {
			t.Errorf("Score = %f, want within [0,1]", rec.Score)
		}
		if rec.Reason == "" {
			t.Error("recommendation missing a reason")
		}
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}

	// Completing a module removes it from the feed
	if _, err := e.progress.SubmitQuiz(user.ID, "mod-planets", []string{"Mars", "Jupiter"}, 100); err != nil {
		t.Fatalf("SubmitQuiz() error = %v", err)
	}
	recs, err = e.recommendations.ForUser(user.ID)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}
	for _, rec := range recs {
		if rec.ModuleID == "mod-planets" {
			t.Error("completed module still recommended")
		}
	}
	if len(recs) != 1 {
		t.Errorf("len(recs) = %d, want 1", len(recs))
	}
}

func TestCatalogVisibility(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	e := newTestEnv(t)
	e.seedCatalog(t)

	// Non-admin view strips answers
	module, err := e.catalog.GetByID("mod-planets", false)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	for _, q := range module.Quiz {
		for _, opt := range q.Options {
			if opt.IsCorrect {
				t.Error("non-admin module view leaks correct answers")
			}
		}
	}

	// Admin view keeps them
	module, err = e.catalog.GetByID("mod-planets", true)
	if err != nil {
		t.Fatalf("GetByID(admin) error = %v", err)
	}
	found := false
	for _, q := range module.Quiz {
		for _, opt := range q.Options {
			if opt.IsCorrect {
				found = true
			}
		}
	}
	if !found {
		t.Error("admin module view should keep correct answers")
	}

	// Soft delete hides the module from non-admins but keeps the row
	if err := e.catalog.Delete("mod-planets"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := e.catalog.GetByID("mod-planets", false); err != ErrModuleNotFound {
		t.Errorf("GetByID(deleted) error = %v, want %v", err, ErrModuleNotFound)
	}
	if _, err := e.catalog.GetByID("mod-planets", true); err != nil {
		t.Errorf("GetByID(deleted, admin) error = %v, want nil", err)
	}
}
